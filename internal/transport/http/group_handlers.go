package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/socialchat-server/internal/store"
)

// GroupHandlers provides HTTP handlers for group administration.
// Every change that members should see live is pushed through the hub.
type GroupHandlers struct {
	store store.Store
	hub   Hub
	log   *zerolog.Logger
}

// NewGroupHandlers creates a new group handlers instance.
func NewGroupHandlers(st store.Store, hub Hub, logger *zerolog.Logger) *GroupHandlers {
	return &GroupHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// CreateGroupRequest represents the create group request body.
type CreateGroupRequest struct {
	Name    string  `json:"name" binding:"required,min=1,max=64"`
	Members []int64 `json:"members"`
}

// InvitationRequest answers a group invitation.
type InvitationRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// RenameRequest represents the rename request body.
type RenameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// ThemeRequest represents the theme request body.
type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,min=1,max=32"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatorID int64  `json:"creator_id"`
	ChatTheme string `json:"chat_theme"`
	CreatedAt string `json:"created_at"`
}

func groupResponse(g *store.Group) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatorID: g.CreatorID,
		ChatTheme: g.ChatTheme,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
}

// CreateGroup creates a group; the creator joins and the members are invited.
// POST /api/groups
func (h *GroupHandlers) CreateGroup(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create group request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	members := lo.Without(lo.Uniq(req.Members), uid)
	for _, id := range members {
		if _, err := h.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown member " + strconv.FormatInt(id, 10)})
				return
			}
			h.log.Error().Err(err).Int64("member_id", id).Msg("failed to load member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	group, err := h.store.CreateGroup(ctx, req.Name, uid, members)
	if err != nil {
		h.log.Error().Err(err).Str("group_name", req.Name).Msg("failed to create group")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("group_id", group.ID).Int64("creator_id", uid).Int("invited", len(members)).Msg("group created")
	c.JSON(http.StatusCreated, groupResponse(group))
}

// RespondInvitation accepts or declines a pending invitation. Accepting
// takes effect for live delivery on the next connection.
// PUT /api/groups/:groupId/invitation
func (h *GroupHandlers) RespondInvitation(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	groupID, ok := h.groupParam(c)
	if !ok {
		return
	}

	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	changed, err := h.store.RespondGroupInvitation(c.Request.Context(), groupID, uid, *req.Accept)
	if err != nil {
		h.log.Error().Err(err).Int64("group_id", groupID).Msg("failed to respond to invitation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !changed {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invitation not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Rename changes the group name.
// PUT /api/groups/:groupId/name
func (h *GroupHandlers) Rename(c *gin.Context) {
	var req RenameRequest
	groupID, ok := h.memberRequest(c, &req)
	if !ok {
		return
	}

	if err := h.store.RenameGroup(c.Request.Context(), groupID, req.Name); err != nil {
		h.storeError(c, err, groupID, "failed to rename group")
		return
	}
	h.hub.NotifyGroupRenamed(groupID, req.Name)
	c.Status(http.StatusNoContent)
}

// SetTheme changes the group chat theme.
// PUT /api/groups/:groupId/theme
func (h *GroupHandlers) SetTheme(c *gin.Context) {
	var req ThemeRequest
	groupID, ok := h.memberRequest(c, &req)
	if !ok {
		return
	}

	if err := h.store.SetGroupTheme(c.Request.Context(), groupID, req.Theme); err != nil {
		h.storeError(c, err, groupID, "failed to set group theme")
		return
	}
	h.hub.NotifyGroupTheme(groupID, req.Theme)
	c.Status(http.StatusNoContent)
}

// Leave removes the caller from the group. The creator has to disband instead.
// POST /api/groups/:groupId/leave
func (h *GroupHandlers) Leave(c *gin.Context) {
	uid, username, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	group, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if group.CreatorID == uid {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "the creator cannot leave; disband the group instead"})
		return
	}

	removed, err := h.store.RemoveMember(c.Request.Context(), group.ID, uid)
	if err != nil {
		h.storeError(c, err, group.ID, "failed to leave group")
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not a member"})
		return
	}

	h.hub.NotifyMemberLeft(group.ID, uid, username)
	c.Status(http.StatusNoContent)
}

// Disband deletes the group. Only the creator may do this.
// DELETE /api/groups/:groupId
func (h *GroupHandlers) Disband(c *gin.Context) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return
	}
	group, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if group.CreatorID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the creator can disband the group"})
		return
	}

	if err := h.store.DeleteGroup(c.Request.Context(), group.ID); err != nil {
		h.storeError(c, err, group.ID, "failed to disband group")
		return
	}

	h.log.Info().Int64("group_id", group.ID).Int64("user_id", uid).Msg("group disbanded")
	h.hub.NotifyGroupDisbanded(group.ID, group.Name)
	c.Status(http.StatusNoContent)
}

func (h *GroupHandlers) groupParam(c *gin.Context) (int64, bool) {
	groupID, err := strconv.ParseInt(c.Param("groupId"), 10, 64)
	if err != nil || groupID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid group id"})
		return 0, false
	}
	return groupID, true
}

func (h *GroupHandlers) loadGroup(c *gin.Context) (*store.Group, bool) {
	groupID, ok := h.groupParam(c)
	if !ok {
		return nil, false
	}
	group, err := h.store.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.storeError(c, err, groupID, "failed to load group")
		return nil, false
	}
	return group, true
}

// memberRequest binds body and checks the caller is an accepted member.
func (h *GroupHandlers) memberRequest(c *gin.Context, body any) (int64, bool) {
	uid, _, ok := currentUser(c, h.log)
	if !ok {
		return 0, false
	}
	group, ok := h.loadGroup(c)
	if !ok {
		return 0, false
	}
	if err := c.ShouldBindJSON(body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return 0, false
	}

	groupIDs, err := h.store.ListAcceptedGroupIDs(c.Request.Context(), uid)
	if err != nil {
		h.storeError(c, err, group.ID, "failed to check membership")
		return 0, false
	}
	if !lo.Contains(groupIDs, group.ID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member"})
		return 0, false
	}
	return group.ID, true
}

func (h *GroupHandlers) storeError(c *gin.Context, err error, groupID int64, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "group not found"})
		return
	}
	h.log.Error().Err(err).Int64("group_id", groupID).Msg(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
