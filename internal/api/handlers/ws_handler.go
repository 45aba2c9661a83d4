package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prepvoice/prepvoice/internal/agent"
	"github.com/prepvoice/prepvoice/internal/channel"
	"github.com/prepvoice/prepvoice/internal/models"
	"github.com/prepvoice/prepvoice/internal/services"
	"github.com/prepvoice/prepvoice/internal/templates"
)

// ChannelFactory builds one voice channel per websocket connection.
type ChannelFactory func() channel.Channel

// WSHandler exposes the session controller over a websocket: the client
// sends start/disconnect commands, the server relays lifecycle, transcript,
// and navigation events.
type WSHandler struct {
	interviews  services.InterviewService
	catalog     *templates.Catalog
	pipelines   agent.Pipelines
	newChannel  ChannelFactory
	assistantID string
	log         *logrus.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(
	interviews services.InterviewService,
	catalog *templates.Catalog,
	pipelines agent.Pipelines,
	newChannel ChannelFactory,
	assistantID string,
	log *logrus.Logger,
) *WSHandler {
	return &WSHandler{
		interviews:  interviews,
		catalog:     catalog,
		pipelines:   pipelines,
		newChannel:  newChannel,
		assistantID: assistantID,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // start | disconnect

	Mode        string `json:"mode"` // freeform | scripted
	InterviewID string `json:"interview_id"`
	FeedbackID  string `json:"feedback_id"`
	TemplateID  string `json:"template_id"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// wsNotifier forwards session events to the attached client. Write failures
// are dropped: the read loop notices the dead connection and tears down.
type wsNotifier struct {
	conn *wsConn
}

func (n *wsNotifier) StatusChanged(status agent.CallStatus) {
	_ = n.conn.writeJSON(gin.H{"type": "status", "status": status})
}

func (n *wsNotifier) UtteranceAdded(u models.Utterance) {
	_ = n.conn.writeJSON(gin.H{"type": "utterance", "role": u.Role, "text": u.Text})
}

func (n *wsNotifier) SpeakingChanged(speaking bool) {
	_ = n.conn.writeJSON(gin.H{"type": "speaking", "speaking": speaking})
}

func (n *wsNotifier) ErrorMessage(msg string) {
	_ = n.conn.writeJSON(gin.H{"type": "error", "message": msg})
}

func (n *wsNotifier) Navigate(route string) {
	_ = n.conn.writeJSON(gin.H{"type": "navigate", "route": route})
}

func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	userName := contextUserName(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ctrl := agent.NewController(ctx, h.newChannel(), h.pipelines, &wsNotifier{conn: wc}, h.log, h.assistantID, userID, userName)
	defer ctrl.Close()
	defer func() {
		// A dropped browser must not leave the voice call running.
		if s := ctrl.Status(); s == agent.StatusConnecting || s == agent.StatusActive {
			ctrl.Disconnect()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(gin.H{"type": "error", "code": "INVALID_ARGUMENT", "message": "invalid json"})
			continue
		}

		switch msg.Type {
		case "start":
			params, perr := h.startParams(ctx, userID, userName, msg)
			if perr != "" {
				_ = wc.writeJSON(gin.H{"type": "error", "code": "INVALID_ARGUMENT", "message": perr})
				continue
			}
			if err := ctrl.StartCall(ctx, params); err != nil {
				h.log.WithError(err).WithField("user_id", userID).Warn("start call rejected")
			}

		case "disconnect":
			ctrl.Disconnect()

		default:
			_ = wc.writeJSON(gin.H{"type": "error", "code": "INVALID_ARGUMENT", "message": "unknown message type"})
		}
	}
}

// startParams resolves one start command into call parameters. Scripted
// sessions load their question list from the named interview; a template id
// first materializes an interview from the template so the resulting
// feedback has a record to attach to.
func (h *WSHandler) startParams(ctx context.Context, userID, userName string, msg wsClientMsg) (agent.StartParams, string) {
	if msg.Mode == string(agent.ModeFreeForm) {
		return agent.StartParams{Mode: agent.ModeFreeForm}, ""
	}
	if msg.Mode != string(agent.ModeScripted) {
		return agent.StartParams{}, "mode must be freeform or scripted"
	}

	switch {
	case msg.InterviewID != "":
		iv, err := h.interviews.Get(ctx, msg.InterviewID)
		if err != nil {
			return agent.StartParams{}, "interview not found"
		}
		return agent.StartParams{
			Mode:        agent.ModeScripted,
			InterviewID: msg.InterviewID,
			FeedbackID:  msg.FeedbackID,
			Questions:   iv.Questions,
		}, ""

	case msg.TemplateID != "":
		t, ok := h.catalog.Get(msg.TemplateID)
		if !ok {
			return agent.StartParams{}, "template not found"
		}
		iv, err := h.interviews.Create(ctx, userID, userName, services.CreateInterviewInput{
			Role:        t.Role,
			Type:        t.Type,
			Level:       t.Level,
			TechStack:   t.TechStack,
			Description: t.Description,
			Questions:   t.Questions,
		})
		if err != nil {
			return agent.StartParams{}, "failed to create interview from template"
		}
		return agent.StartParams{
			Mode:        agent.ModeScripted,
			InterviewID: iv.ID.Hex(),
			Questions:   t.Questions,
		}, ""

	default:
		return agent.StartParams{}, "interview_id or template_id is required for scripted mode"
	}
}
