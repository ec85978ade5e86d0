package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pigjjun/board/backend/internal/devicestore"
	"github.com/pigjjun/board/backend/internal/models"
	"github.com/pigjjun/board/backend/internal/prefs"
	"github.com/pigjjun/board/backend/internal/voting"
)

type VoteHandler struct {
	votes   *voting.Aggregator
	db      *gorm.DB
	devices devicestore.Store
	prefs   *prefs.Service
}

func NewVoteHandler(votes *voting.Aggregator, db *gorm.DB, devices devicestore.Store, p *prefs.Service) *VoteHandler {
	return &VoteHandler{votes: votes, db: db, devices: devices, prefs: p}
}

// voter picks the account when signed in, the device otherwise.
func (h *VoteHandler) voter(c *gin.Context) (voting.VoterIdentity, bool) {
	if id, ok := extractUserID(c); ok {
		return voting.NewAccountVoter(h.db, id), true
	}
	if dev := deviceID(c); dev != "" {
		return voting.NewDeviceVoter(h.devices, dev), true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Missing device id"})
	return nil, false
}

var outcomeMessages = map[voting.Outcome]string{
	voting.Recorded:     prefs.MsgVoteRecorded,
	voting.Changed:      prefs.MsgVoteChanged,
	voting.AlreadyVoted: prefs.MsgAlreadyVoted,
}

// VotePost casts a left/neutral/right vote. Anonymous devices may vote too.
func (h *VoteHandler) VotePost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Choice must be left, neutral or right"})
		return
	}
	choice, err := models.ParseChoice(input.Choice)
	if err != nil {
		respondError(c, voting.ErrInvalidChoice, "")
		return
	}
	voter, ok := h.voter(c)
	if !ok {
		return
	}

	res, err := h.votes.CastVote(c.Request.Context(), postID, voter, choice)
	if err != nil {
		respondError(c, err, "Failed to vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": res.Outcome,
		"choice":  res.Choice,
		"tally":   res.Tally,
		"shares":  res.Shares,
		"message": prefs.Message(language(c, h.prefs), outcomeMessages[res.Outcome]),
	})
}

// GetVote returns the caller's current choice and the post's tally.
func (h *VoteHandler) GetVote(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	voter, ok := h.voter(c)
	if !ok {
		return
	}

	tally, err := h.votes.Tally(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, "Failed to fetch vote")
		return
	}
	choice, err := h.votes.GetChoice(c.Request.Context(), postID, voter)
	if err != nil {
		respondError(c, err, "Failed to fetch vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"choice": choice,
		"tally":  tally,
		"shares": tally.Shares(),
	})
}
