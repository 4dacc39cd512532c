package youtrack

import "youtrack_helper/internal/model"

// Document shapes of the YouTrack 4 REST API. Scalars are accepted both as
// attributes of the entity element and as child elements.

var groupList = &shape[model.Group]{
	kind:  listShape,
	items: []string{"userGroup", "group"},
	fields: []field[model.Group]{
		{elem: "userGroup", attr: "name", set: func(g *model.Group, v string) { g.Name = v }},
		{elem: "group", attr: "name", set: func(g *model.Group, v string) { g.Name = v }},
		{elem: "name", parent: "userGroup", set: func(g *model.Group, v string) { g.Name = v }},
		{elem: "name", parent: "group", set: func(g *model.Group, v string) { g.Name = v }},
	},
}

var projectList = &shape[model.Project]{
	kind:  listShape,
	items: []string{"project"},
	fields: []field[model.Project]{
		{elem: "project", attr: "shortName", set: func(p *model.Project, v string) { p.ShortName = v }},
		{elem: "shortName", parent: "project", set: func(p *model.Project, v string) { p.ShortName = v }},
	},
}

var buildBundleList = &shape[model.BuildBundle]{
	kind:  listShape,
	items: []string{"buildBundle"},
	fields: []field[model.BuildBundle]{
		{elem: "buildBundle", attr: "name", set: func(b *model.BuildBundle, v string) { b.Name = v }},
		{elem: "name", parent: "buildBundle", set: func(b *model.BuildBundle, v string) { b.Name = v }},
	},
}

var fieldFields = []field[model.Field]{
	{elem: "customFieldPrototype", attr: "name", set: func(f *model.Field, v string) { f.Name = v }},
	{elem: "customFieldPrototype", attr: "url", set: func(f *model.Field, v string) { f.URL = v }},
	{elem: "customFieldPrototype", attr: "type", set: func(f *model.Field, v string) { f.Type = v }},
	{elem: "type", parent: "customFieldPrototype", set: func(f *model.Field, v string) { f.Type = v }},
	{elem: "defaultParam", attr: "value", match: named("defaultBundle"),
		set: func(f *model.Field, v string) { f.DefaultBundle = v }},
}

var fieldOne = &shape[model.Field]{
	kind:   singleShape,
	fields: fieldFields,
}

var fieldList = &shape[model.Field]{
	kind:   listShape,
	items:  []string{"customFieldPrototype"},
	fields: fieldFields,
}

var stateList = &shape[model.State]{
	kind:  listShape,
	items: []string{"state"},
	fields: []field[model.State]{
		{elem: "state", set: func(s *model.State, v string) { s.Value = v }},
	},
}

var stateBundleOne = &shape[model.StateBundle]{
	kind: nestedShape,
	fields: []field[model.StateBundle]{
		{elem: "stateBundle", attr: "name", set: func(b *model.StateBundle, v string) { b.Name = v }},
	},
	children: children[model.StateBundle, model.State]{
		shape: stateList,
		attach: func(b *model.StateBundle, s model.State) {
			b.States = append(b.States, s)
		},
	},
}

var stateBundleList = &shape[model.StateBundle]{
	kind:  listShape,
	items: []string{"stateBundle"},
	fields: []field[model.StateBundle]{
		{elem: "stateBundle", attr: "name", set: func(b *model.StateBundle, v string) { b.Name = v }},
		{elem: "stateBundle", attr: "url", set: func(b *model.StateBundle, v string) { b.URL = v }},
	},
}

// userRef keeps the first user of a userRefs document.
var userRef = &shape[model.User]{
	kind: singleShape,
	fields: []field[model.User]{
		{elem: "user", attr: "login", set: func(u *model.User, v string) {
			if u.Username == "" {
				u.Username = v
			}
		}},
	},
}

var versionOne = &shape[model.Version]{
	kind: singleShape,
	fields: []field[model.Version]{
		{elem: "version", set: func(ver *model.Version, v string) { ver.Raw = v }},
	},
}

// issueShape captures the issue id and, when stateField is set, the value of
// that field.
func issueShape(stateField string) *shape[model.Issue] {
	s := &shape[model.Issue]{
		kind: singleShape,
		fields: []field[model.Issue]{
			{elem: "issue", attr: "id", set: func(i *model.Issue, v string) { i.ID = v }},
		},
	}
	if stateField != "" {
		s.fields = append(s.fields, field[model.Issue]{
			elem:   "value",
			parent: "field",
			match:  named(stateField),
			set:    func(i *model.Issue, v string) { i.State = v },
		})
	}
	return s
}
