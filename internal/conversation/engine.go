package conversation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tsumiki/yoyakubot/internal/observability/metrics"
	"github.com/tsumiki/yoyakubot/pkg/logging"
)

// Messenger is the subset of the LINE client used by the engine.
type Messenger interface {
	ReplyText(ctx context.Context, replyToken, text string) error
	PushText(ctx context.Context, userID, text string) error
	DownloadContent(ctx context.Context, messageID string) ([]byte, error)
}

// StoreRegistration carries everything accumulated during the dialogue that
// the spreadsheet layer needs to create a store document.
type StoreRegistration struct {
	StoreName string
	StoreID   int
	SeatInfo  string
	TimeSlots []string
}

// SheetWriter is the spreadsheet side-effect surface of the engine.
type SheetWriter interface {
	// CreateStoreDocument creates the per-store spreadsheet and registers it
	// in the master index, returning the document URL.
	CreateStoreDocument(ctx context.Context, reg StoreRegistration) (string, error)
	// AppendRows writes reservation rows, overwriting in place any row that
	// already carries the same time label.
	AppendRows(ctx context.Context, sheetURL string, rows []ReservationRow) error
}

// InboundMessage is a normalized inbound event as carried on the job queue.
type InboundMessage struct {
	UserID      string `json:"user_id"`
	ReplyToken  string `json:"reply_token"`
	MessageType string `json:"message_type"`
	Text        string `json:"text,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// Engine advances one session per inbound message and invokes the external
// clients as transition side effects. Handling is serialized per user.
type Engine struct {
	store      SessionStore
	extractor  Extractor
	sheets     SheetWriter
	messenger  Messenger
	logger     *logging.Logger
	metrics    *metrics.ConversationMetrics
	locks      *userLocks
	newStoreID func() int
}

// NewEngine creates a conversation engine. metrics may be nil.
func NewEngine(store SessionStore, extractor Extractor, sheets SheetWriter, messenger Messenger, logger *logging.Logger, m *metrics.ConversationMetrics) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:      store,
		extractor:  extractor,
		sheets:     sheets,
		messenger:  messenger,
		logger:     logger,
		metrics:    m,
		locks:      newUserLocks(),
		newStoreID: func() int { return rand.IntN(900000) + 100000 },
	}
}

// HandleMessage processes a single inbound message. On external-client
// failure the session keeps its current state and the user is asked to retry;
// an error is returned only for programming/state faults.
func (e *Engine) HandleMessage(ctx context.Context, msg InboundMessage) error {
	if msg.UserID == "" {
		return nil
	}

	unlock := e.locks.lock(msg.UserID)
	defer unlock()

	sess, err := e.store.Get(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("conversation: load session: %w", err)
	}
	if sess == nil {
		sess = NewSession(msg.UserID)
	}

	switch msg.MessageType {
	case "text":
		err = e.handleText(ctx, sess, msg)
	case "image":
		err = e.handleImage(ctx, sess, msg)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if err := e.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("conversation: save session: %w", err)
	}
	return nil
}

func (e *Engine) handleText(ctx context.Context, sess *Session, msg InboundMessage) error {
	text := msg.Text

	switch sess.State {
	case StateStart:
		name := e.extractor.ExtractStoreName(ctx, text)
		sess.StoreName = name
		sess.StoreID = e.newStoreID()
		sess.State = StateConfirmStore
		e.reply(ctx, msg.ReplyToken, confirmStorePrompt(sess))

	case StateConfirmStore:
		switch {
		case isAffirmative(text):
			sess.State = StateAskSeats
			e.reply(ctx, msg.ReplyToken, msgAskSeats)
		case isNegative(text):
			sess.StoreName = ""
			sess.StoreID = 0
			sess.State = StateStart
			e.reply(ctx, msg.ReplyToken, msgAskStoreAgain)
		default:
			e.reply(ctx, msg.ReplyToken, confirmStorePrompt(sess))
		}

	case StateAskSeats:
		sess.SeatInfo = e.extractor.ExtractSeatCounts(ctx, text, sess.SeatInfo)
		sess.State = StateConfirmSeats
		e.reply(ctx, msg.ReplyToken, confirmSeatsPrompt(sess))

	case StateConfirmSeats:
		switch {
		case isAffirmative(text):
			sess.State = StateWaitTemplateImage
			e.reply(ctx, msg.ReplyToken, msgAskTemplateImage)
		case isNegative(text):
			sess.State = StateAskSeats
			e.reply(ctx, msg.ReplyToken, msgAskSeatsAgain)
		default:
			e.reply(ctx, msg.ReplyToken, confirmSeatsPrompt(sess))
		}

	case StateWaitTemplateImage:
		e.reply(ctx, msg.ReplyToken, msgAskTemplateImage)

	case StateConfirmTimes:
		switch {
		case isAffirmative(text):
			return e.createStoreDocument(ctx, sess, msg)
		case isNegative(text):
			sess.TimeSlots = nil
			sess.State = StateWaitTemplateImage
			e.reply(ctx, msg.ReplyToken, msgResendTemplate)
		default:
			e.reply(ctx, msg.ReplyToken, confirmTimesPrompt(sess))
		}

	case StateWaitFilledImage:
		e.reply(ctx, msg.ReplyToken, msgAskFilledImage)

	case StateDone:
		e.reply(ctx, msg.ReplyToken, msgDoneInfo)

	default:
		return fmt.Errorf("conversation: unexpected state %q for user %s", sess.State, sess.UserID)
	}

	return nil
}

func (e *Engine) handleImage(ctx context.Context, sess *Session, msg InboundMessage) error {
	switch sess.State {
	case StateWaitTemplateImage:
		return e.analyzeTemplateImage(ctx, sess, msg)

	case StateWaitFilledImage, StateDone:
		// A photo sent after completion is a fresh filled-sheet submission.
		return e.processFilledImage(ctx, sess, msg)

	case StateStart, StateConfirmStore, StateAskSeats, StateConfirmSeats, StateConfirmTimes:
		// Images are meaningless mid-registration.
		return nil

	default:
		return fmt.Errorf("conversation: unexpected state %q for user %s", sess.State, sess.UserID)
	}
}

// analyzeTemplateImage learns the time-slot structure from a blank sheet
// photo. Any failure keeps the session waiting for a better photo.
func (e *Engine) analyzeTemplateImage(ctx context.Context, sess *Session, msg InboundMessage) error {
	img, err := e.messenger.DownloadContent(ctx, msg.MessageID)
	if err != nil {
		e.logger.Warn("template image download failed", "user_id", sess.UserID, "error", err)
		e.metrics.ObserveExtraction("time_slots", "download_error")
		e.reply(ctx, msg.ReplyToken, msgTemplateAnalysisFailed)
		return nil
	}

	slots := e.extractor.ExtractTimeSlots(ctx, img)
	if len(slots) == 0 {
		e.metrics.ObserveExtraction("time_slots", "empty")
		e.reply(ctx, msg.ReplyToken, msgTemplateAnalysisFailed)
		return nil
	}
	e.metrics.ObserveExtraction("time_slots", "ok")

	sess.TimeSlots = slots
	sess.State = StateConfirmTimes
	e.reply(ctx, msg.ReplyToken, confirmTimesPrompt(sess))
	return nil
}

// createStoreDocument commits the accumulated registration. The spreadsheet
// is created at most once per session.
func (e *Engine) createStoreDocument(ctx context.Context, sess *Session, msg InboundMessage) error {
	if sess.SheetURL == "" {
		url, err := e.sheets.CreateStoreDocument(ctx, StoreRegistration{
			StoreName: sess.StoreName,
			StoreID:   sess.StoreID,
			SeatInfo:  sess.SeatInfo,
			TimeSlots: sess.TimeSlots,
		})
		if err != nil {
			e.logger.Error("store document creation failed", "user_id", sess.UserID, "error", err)
			e.metrics.ObserveSheetWrite("create", "error")
			e.reply(ctx, msg.ReplyToken, msgSheetCreateFailed)
			return nil
		}
		e.metrics.ObserveSheetWrite("create", "ok")
		sess.SheetURL = url
	}

	sess.State = StateWaitFilledImage
	e.reply(ctx, msg.ReplyToken, storeRegisteredPrompt(sess))
	return nil
}

// processFilledImage extracts reservation rows from a filled sheet photo and
// writes them to the store document.
func (e *Engine) processFilledImage(ctx context.Context, sess *Session, msg InboundMessage) error {
	img, err := e.messenger.DownloadContent(ctx, msg.MessageID)
	if err != nil {
		e.logger.Warn("filled image download failed", "user_id", sess.UserID, "error", err)
		e.metrics.ObserveExtraction("reservation_rows", "download_error")
		e.reply(ctx, msg.ReplyToken, msgFilledAnalysisFailed)
		return nil
	}

	rows := e.extractor.ExtractReservationRows(ctx, img)
	if len(rows) == 0 {
		e.metrics.ObserveExtraction("reservation_rows", "empty")
		e.reply(ctx, msg.ReplyToken, msgFilledAnalysisFailed)
		return nil
	}
	e.metrics.ObserveExtraction("reservation_rows", "ok")

	if err := e.sheets.AppendRows(ctx, sess.SheetURL, rows); err != nil {
		e.logger.Error("reservation append failed", "user_id", sess.UserID, "error", err)
		e.metrics.ObserveSheetWrite("append", "error")
		e.reply(ctx, msg.ReplyToken, msgSheetWriteFailed)
		return nil
	}
	e.metrics.ObserveSheetWrite("append", "ok")

	sess.State = StateDone
	e.reply(ctx, msg.ReplyToken, msgDone)
	e.push(ctx, sess.UserID, msgDoneGuide)
	return nil
}

// reply delivers a reply best-effort. A failed send is logged, not
// propagated: the session transition already happened.
func (e *Engine) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := e.messenger.ReplyText(ctx, replyToken, text); err != nil {
		e.logger.Warn("reply failed", "error", err)
	}
}

func (e *Engine) push(ctx context.Context, userID, text string) {
	if err := e.messenger.PushText(ctx, userID, text); err != nil {
		e.logger.Warn("push failed", "user_id", userID, "error", err)
	}
}

const (
	affirmativeTokenJa = "はい"
	affirmativeTokenEn = "yes"
	negativeTokenJa    = "いいえ"
	negativeTokenEn    = "no"
)

// isAffirmative reports whether the text contains a yes-token. Inputs that
// match neither token must reprompt, never default to a branch.
func isAffirmative(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(text, affirmativeTokenJa) || strings.Contains(lower, affirmativeTokenEn)
}

func isNegative(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(text, negativeTokenJa) || strings.Contains(lower, negativeTokenEn)
}
