package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/LovationAdmin/bizpanel/middleware"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

const wsBudgetKey = "budget_id"

// wsFrame is the message exchanged on a budget editing channel.
type wsFrame struct {
	Type    string                  `json:"type"`
	User    string                  `json:"user,omitempty"`
	Tasks   []models.TaskEntryInput `json:"tasks,omitempty"`
	Totals  *models.TotalsResponse  `json:"totals,omitempty"`
	Display *models.DisplayTotals   `json:"display,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// WSHandler keeps every editor of a budget in sync: each task list a client
// sends is recomputed and the totals are broadcast to all sessions of that
// budget.
type WSHandler struct {
	M       *melody.Melody
	service *services.BudgetService
}

func NewWSHandler(service *services.BudgetService) *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &WSHandler{M: m, service: service}

	m.HandleConnect(func(s *melody.Session) {
		budgetID, _ := s.Get(wsBudgetKey)
		slog.Debug("WebSocket client connected", "budget_id", utils.MaskID(toString(budgetID)))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		budgetID, _ := s.Get(wsBudgetKey)
		slog.Debug("WebSocket client disconnected", "budget_id", utils.MaskID(toString(budgetID)))
	})
	m.HandleError(func(s *melody.Session, err error) {
		slog.Warn("WebSocket error", "error", err)
	})
	m.HandleMessage(h.handleMessage)

	return h
}

// HandleWS upgrades the request; the caller must own the budget.
func (h *WSHandler) HandleWS(c *gin.Context) {
	budgetID := c.Param("id")
	userID := middleware.GetUserID(c)

	if _, err := h.service.Get(c.Request.Context(), budgetID, userID); err != nil {
		respondError(c, err)
		return
	}

	keys := map[string]any{
		wsBudgetKey: budgetID,
		"user_id":   userID,
	}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		slog.Warn("Failed to upgrade websocket", "error", err)
		if !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "WebSocket upgrade failed"})
		}
	}
}

func (h *WSHandler) handleMessage(s *melody.Session, msg []byte) {
	var in wsFrame
	if err := json.Unmarshal(msg, &in); err != nil || in.Type != "tasks_changed" {
		reply, _ := json.Marshal(wsFrame{Type: "error", Error: "expected a tasks_changed frame"})
		_ = s.Write(reply)
		return
	}

	budgetID, _ := s.Get(wsBudgetKey)
	userID, _ := s.Get("user_id")

	totals := h.service.Preview(in.Tasks)
	out, err := json.Marshal(wsFrame{
		Type:   "totals",
		User:   toString(userID),
		Tasks:  in.Tasks,
		Totals: &totals,
	})
	if err != nil {
		slog.Error("Failed to encode totals frame", "error", err)
		return
	}
	h.broadcast(toString(budgetID), out)
}

// BroadcastTotals notifies every session of a budget.
func (h *WSHandler) BroadcastTotals(budgetID, eventType string, display models.DisplayTotals) {
	msg, err := json.Marshal(wsFrame{Type: eventType, Display: &display})
	if err != nil {
		slog.Error("Failed to encode broadcast frame", "error", err)
		return
	}
	h.broadcast(budgetID, msg)
}

func (h *WSHandler) broadcast(budgetID string, msg []byte) {
	err := h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get(wsBudgetKey)
		return exists && id == budgetID
	})
	if err != nil {
		slog.Warn("Error broadcasting to budget", "budget_id", utils.MaskID(budgetID), "error", err)
	}
}

func (h *WSHandler) Close() error {
	return h.M.Close()
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
