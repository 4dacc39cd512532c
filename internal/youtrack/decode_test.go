package youtrack

import (
	"reflect"
	"strings"
	"testing"

	"youtrack_helper/internal/model"
)

func TestDecodeStateBundle(t *testing.T) {
	docs := map[string]string{
		"compact": `<stateBundle name="States"><state>Open</state><state>Fixed</state><state>Won't fix</state></stateBundle>`,
		"indented": `<?xml version="1.0" encoding="UTF-8"?>
<stateBundle name="States">
    <state isResolved="false">Open</state>
    <state isResolved="true">Fixed</state>

    <state isResolved="true">Won&apos;t fix</state>
</stateBundle>`,
	}
	want := []model.State{{Value: "Open"}, {Value: "Fixed"}, {Value: "Won't fix"}}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			bundle := &model.StateBundle{}
			if err := decodeOne(strings.NewReader(doc), stateBundleOne, bundle); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if bundle.Name != "States" {
				t.Errorf("expected name States, got %q", bundle.Name)
			}
			if !reflect.DeepEqual(bundle.States, want) {
				t.Errorf("expected states %v, got %v", want, bundle.States)
			}
		})
	}
}

func TestDecodeEmptyStateBundle(t *testing.T) {
	bundle := &model.StateBundle{States: []model.State{}}
	if err := decodeOne(strings.NewReader(`<stateBundle name="Empty"/>`), stateBundleOne, bundle); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if bundle.States == nil || len(bundle.States) != 0 {
		t.Errorf("expected empty states, got %v", bundle.States)
	}
}

func TestDecodeListKeepsDocumentOrder(t *testing.T) {
	doc := `<projects>
  <project name="Jenkins Tools" shortName="JT" description="x"/>
  <project name="Alpha"><shortName>ALPHA</shortName></project>
  <project name="Beta" shortName="B"/>
</projects>`
	projects, err := decodeList(strings.NewReader(doc), projectList)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []model.Project{{ShortName: "JT"}, {ShortName: "ALPHA"}, {ShortName: "B"}}
	if !reflect.DeepEqual(projects, want) {
		t.Errorf("expected %v, got %v", want, projects)
	}
}

func TestDecodeEmptyList(t *testing.T) {
	groups, err := decodeList(strings.NewReader(`<userGroupRefs></userGroupRefs>`), groupList)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if groups == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestDecodeGroupsAndBuildBundles(t *testing.T) {
	groups, err := decodeList(strings.NewReader(
		`<userGroupRefs><userGroup name="All Users" url="x"/><userGroup name="developers"/></userGroupRefs>`), groupList)
	if err != nil {
		t.Fatalf("decode groups failed: %v", err)
	}
	if !reflect.DeepEqual(groups, []model.Group{{Name: "All Users"}, {Name: "developers"}}) {
		t.Errorf("unexpected groups %v", groups)
	}

	bundles, err := decodeList(strings.NewReader(
		`<buildBundles><buildBundle name="Builds"/><buildBundle><name>Nightly</name></buildBundle></buildBundles>`), buildBundleList)
	if err != nil {
		t.Fatalf("decode bundles failed: %v", err)
	}
	if !reflect.DeepEqual(bundles, []model.BuildBundle{{Name: "Builds"}, {Name: "Nightly"}}) {
		t.Errorf("unexpected bundles %v", bundles)
	}
}

func TestDecodeField(t *testing.T) {
	doc := `<customFieldPrototype name="State" type="state[1]" isPrivate="false">
  <defaultParam name="somethingElse" value="nope"/>
  <defaultParam name="defaultBundle" value="States"/>
</customFieldPrototype>`
	field := &model.Field{}
	if err := decodeOne(strings.NewReader(doc), fieldOne, field); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if field.Name != "State" || field.Type != "state[1]" || field.DefaultBundle != "States" {
		t.Errorf("unexpected field %+v", field)
	}
	if !field.IsSingleState() {
		t.Error("expected a single state field")
	}
}

func TestDecodeIssueState(t *testing.T) {
	doc := `<issue id="JT-12">
  <field name="summary"><value>Build breaks</value></field>
  <field name="State"><value>Fixed</value></field>
  <comment author="root" text="hi"/>
</issue>`

	issue := &model.Issue{}
	if err := decodeOne(strings.NewReader(doc), issueShape("State"), issue); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if issue.ID != "JT-12" || issue.State != "Fixed" {
		t.Errorf("unexpected issue %+v", issue)
	}

	issue = &model.Issue{}
	if err := decodeOne(strings.NewReader(doc), issueShape(""), issue); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if issue.State != "" {
		t.Errorf("expected no state without a state field, got %q", issue.State)
	}
}

func TestDecodeVersion(t *testing.T) {
	for _, doc := range []string{
		`<version>4.2.1</version>`,
		`<version><version>4.2.1</version><build>15000</build></version>`,
	} {
		v := &model.Version{}
		if err := decodeOne(strings.NewReader(doc), versionOne, v); err != nil {
			t.Fatalf("decode %s failed: %v", doc, err)
		}
		if v.Raw != "4.2.1" {
			t.Errorf("expected 4.2.1 from %s, got %q", doc, v.Raw)
		}
	}
}

func TestDecodeUserRefKeepsFirst(t *testing.T) {
	u := &model.User{}
	doc := `<userRefs><user login="alice" url="a"/><user login="bob" url="b"/></userRefs>`
	if err := decodeOne(strings.NewReader(doc), userRef, u); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("expected alice, got %q", u.Username)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, doc := range []string{
		``,
		`<projects><project shortName="A"></projects>`,
		`not xml at all`,
	} {
		if _, err := decodeList(strings.NewReader(doc), projectList); err == nil {
			t.Errorf("expected an error for %q", doc)
		}
	}
}

func TestDecodeLatin1Document(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><projects><project shortName=\"CAF\xc9\"/></projects>"
	projects, err := decodeList(strings.NewReader(doc), projectList)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(projects) != 1 || projects[0].ShortName != "CAFÉ" {
		t.Errorf("unexpected projects %v", projects)
	}
}
