// Package gateway exposes the YouTrack client over a small JSON HTTP API.
package gateway

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/logger"
	"youtrack_helper/internal/model"
	"youtrack_helper/internal/updater"
	"youtrack_helper/internal/youtrack"
)

const userKey = "youtrack_user"

// Server serves one site. Every request that needs a session logs in with
// the site credentials first.
type Server struct {
	client  *youtrack.Client
	site    config.Site
	updater *updater.Updater
	log     *zap.Logger
}

// New creates a gateway Server
func New(client *youtrack.Client, site config.Site, u *updater.Updater, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		client:  client,
		site:    site,
		updater: u,
		log:     log,
	}
}

// Router returns a gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogMiddleware(s.log), gin.Recovery())

	r.GET("/version", s.handleVersion)

	authed := r.Group("/", s.requireSession())
	authed.GET("/projects", s.handleProjects)
	authed.GET("/groups", s.handleGroups)
	authed.GET("/fields", s.handleFields)
	authed.GET("/fields/:name/bundle", s.handleFieldBundle)
	authed.GET("/bundles/state", s.handleStateBundles)
	authed.GET("/bundles/state/:name", s.handleStateBundle)
	authed.GET("/bundles/build", s.handleBuildBundles)
	authed.PUT("/bundles/build/:bundle/:build", s.handleAddBuild)
	authed.GET("/issues/:id", s.handleIssue)
	authed.POST("/issues/:id/command", s.handleCommand)
	authed.POST("/issues/:id/comment", s.handleComment)
	authed.GET("/users", s.handleUserByEmail)

	// the updater logs in on its own
	r.POST("/builds", s.handleBuild)
	r.GET("/builds/:build/commands", s.handleBuildCommands)

	return r
}

// requireSession logs in with the site credentials and stores the session
// in the request context
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.client.Login(c.Request.Context(), s.site.Username, s.site.Password)
		if err != nil {
			s.log.Error("failed to log in", zap.String("site", s.site.Name), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to log in to youtrack"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// pathParam returns a path parameter escaped for use as one segment of an
// upstream path, so '?', '#' and '/' stay inside the segment
func pathParam(c *gin.Context, key string) string {
	return url.PathEscape(c.Param(key))
}

func sessionUser(c *gin.Context) *model.User {
	user, _ := c.MustGet(userKey).(*model.User)
	return user
}

// fail writes err as a JSON error. A YouTrack 404 stays a 404, every other
// failure of the upstream server is a bad gateway.
func fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var ytErr *youtrack.Error
	if errors.As(err, &ytErr) && ytErr.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleVersion(c *gin.Context) {
	version, err := s.client.Version(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.client.Projects(c.Request.Context(), sessionUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, youtrack.MatchProjects(projects, q))
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGroups(c *gin.Context) {
	groups, err := s.client.Groups(c.Request.Context(), sessionUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, youtrack.MatchGroups(groups, q))
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleFields(c *gin.Context) {
	fields, err := s.client.Fields(c.Request.Context(), sessionUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, youtrack.MatchFields(fields, q))
		return
	}
	c.JSON(http.StatusOK, fields)
}

func (s *Server) handleFieldBundle(c *gin.Context) {
	bundle, err := s.client.StateBundleForField(c.Request.Context(), sessionUser(c), pathParam(c, "name"))
	if err != nil {
		fail(c, err)
		return
	}
	if bundle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "field is not a state field"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) handleStateBundles(c *gin.Context) {
	bundles, err := s.client.StateBundles(c.Request.Context(), sessionUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bundles)
}

func (s *Server) handleStateBundle(c *gin.Context) {
	bundle, err := s.client.StateBundle(c.Request.Context(), sessionUser(c), pathParam(c, "name"))
	if err != nil {
		fail(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, youtrack.MatchStates(bundle, q))
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (s *Server) handleBuildBundles(c *gin.Context) {
	bundles, err := s.client.BuildBundles(c.Request.Context(), sessionUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, youtrack.MatchBuildBundles(bundles, q))
		return
	}
	c.JSON(http.StatusOK, bundles)
}

func (s *Server) handleAddBuild(c *gin.Context) {
	bundle, build := c.Param("bundle"), c.Param("build")
	if _, err := s.client.AddBuildToBundle(c.Request.Context(), sessionUser(c), bundle, build); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bundle": bundle, "build": build})
}

func (s *Server) handleIssue(c *gin.Context) {
	stateField := c.DefaultQuery("stateField", s.site.StateFieldName)
	issue, err := s.client.Issue(c.Request.Context(), sessionUser(c), pathParam(c, "id"), stateField)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// CommandRequest is the body of POST /issues/:id/command
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
	Comment string `json:"comment"`
	RunAs   string `json:"runAs"`
	Silent  *bool  `json:"silent"` // defaults to the site setting
}

func (s *Server) handleCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	silent := s.site.SilentCommands
	if req.Silent != nil {
		silent = *req.Silent
	}

	cmd, _ := s.client.ApplyCommand(c.Request.Context(), sessionUser(c),
		model.Issue{ID: pathParam(c, "id")}, req.Command, req.Comment, req.RunAs, !silent)
	cmd.SiteName = s.site.Name
	cmd.IssueID = c.Param("id")
	status := http.StatusOK
	if !cmd.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, cmd)
}

// CommentRequest is the body of POST /issues/:id/comment
type CommentRequest struct {
	Text   string `json:"text" binding:"required"`
	Group  string `json:"group"` // defaults to the site comment group
	Silent *bool  `json:"silent"`
}

func (s *Server) handleComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	group := req.Group
	if group == "" {
		group = s.site.CommentGroup
	}
	silent := s.site.SilentCommands
	if req.Silent != nil {
		silent = *req.Silent
	}

	if _, err := s.client.Comment(c.Request.Context(), sessionUser(c), model.Issue{ID: pathParam(c, "id")}, req.Text, group, silent); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleUserByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	found, err := s.client.UserByEmail(c.Request.Context(), sessionUser(c), email)
	if err != nil {
		fail(c, err)
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no user with this email"})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) handleBuild(c *gin.Context) {
	if s.updater == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "build updates are disabled"})
		return
	}
	var req updater.BuildUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	report, err := s.updater.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleBuildCommands(c *gin.Context) {
	if s.updater == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "build updates are disabled"})
		return
	}
	commands, err := s.updater.History(c.Request.Context(), c.Param("build"))
	if err != nil {
		s.log.Error("failed to read commands", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, commands)
}
