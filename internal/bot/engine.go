package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/dobroplatform/dobro-max-bot/internal/event"
	"github.com/dobroplatform/dobro-max-bot/internal/keyboard"
)

const catalogPageSize = 5

// Store is the persistence surface the engine needs
type Store interface {
	UpsertUser(ctx context.Context, user *db.User) error
	GetSession(ctx context.Context, userID string) (*db.Session, error)
	SetSession(ctx context.Context, s *db.Session) error
	ClearSession(ctx context.Context, userID string) error
	CreateRequest(ctx context.Context, req *db.Request) error
	GetRequest(ctx context.Context, id int64) (*db.Request, error)
	GetRequests(ctx context.Context, filter db.RequestFilter) ([]db.Request, error)
	CountRequests(ctx context.Context) (int, error)
	GetUserRequests(ctx context.Context, userID string) ([]db.Request, error)
	CreateResponse(ctx context.Context, resp *db.Response) error
	GetUserResponses(ctx context.Context, userID string) ([]db.Response, error)
	IsOwnerVerified(ctx context.Context, ownerID string) (bool, error)
}

// Messenger is the outbound side the engine replies through
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error
	SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb keyboard.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Engine drives the per-user conversation state machine
type Engine struct {
	store     Store
	messenger Messenger
	locks     userLocks
}

// NewEngine creates the conversation engine with its collaborators injected
func NewEngine(store Store, messenger Messenger) *Engine {
	return &Engine{
		store:     store,
		messenger: messenger,
	}
}

// userLocks serializes event handling per user so two near-simultaneous
// events cannot race on the session row's read-modify-write.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (ul *userLocks) lock(userID string) *sync.Mutex {
	ul.mu.Lock()
	if ul.locks == nil {
		ul.locks = make(map[string]*sync.Mutex)
	}
	l, ok := ul.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[userID] = l
	}
	ul.mu.Unlock()

	l.Lock()
	return l
}

// HandleEvent processes one canonical inbound event. All failures are
// logged here; nothing propagates to the webhook boundary.
func (e *Engine) HandleEvent(ctx context.Context, ev event.Event) {
	switch ev := ev.(type) {
	case event.TextMessage:
		l := e.locks.lock(ev.UserID)
		defer l.Unlock()
		if err := e.handleText(ctx, ev); err != nil {
			log.Printf("bot: text from user=%s failed: %v", ev.UserID, err)
		}
	case event.ButtonPress:
		l := e.locks.lock(ev.UserID)
		defer l.Unlock()
		if err := e.handleButton(ctx, ev); err != nil {
			log.Printf("bot: callback from user=%s failed: %v", ev.UserID, err)
		}
	case event.Lifecycle:
		if err := e.handleLifecycle(ctx, ev); err != nil {
			log.Printf("bot: lifecycle for user=%s failed: %v", ev.UserID, err)
		}
	default:
		log.Printf("bot: unhandled event type %T", ev)
	}
}

func (e *Engine) handleLifecycle(ctx context.Context, ev event.Lifecycle) error {
	if ev.Kind != event.Started {
		return nil
	}
	return e.sendMainMenu(ctx, ev.ChatID, ev.UserID, "")
}

func (e *Engine) handleText(ctx context.Context, ev event.TextMessage) error {
	if err := e.store.UpsertUser(ctx, &db.User{
		ID:        ev.UserID,
		FirstName: ev.Sender.FirstName,
		LastName:  ev.Sender.LastName,
		Username:  ev.Sender.Username,
	}); err != nil {
		// Profile refresh is best-effort; the dialogue must go on.
		log.Printf("bot: upsert user=%s failed: %v", ev.UserID, err)
	}

	text := strings.TrimSpace(ev.Text)

	if strings.HasPrefix(text, "/") {
		return e.handleCommand(ctx, ev, text)
	}

	switch text {
	case "📋 Каталог заявок", "Каталог заявок":
		return e.showCatalog(ctx, ev.ChatID, 1)
	case "➕ Создать заявку", "Создать заявку":
		return e.startCreateFlow(ctx, ev.ChatID, ev.UserID)
	case "👤 Мой профиль", "Мой профиль":
		return e.showProfile(ctx, ev.ChatID, ev.UserID)
	case "❓ Помощь", "Помощь":
		return e.messenger.SendText(ctx, ev.ChatID, helpText())
	}

	// Free text: feed the active create flow, otherwise fall back to the menu
	sess, err := e.activeSession(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if sess != nil {
		return e.handleCreateStepText(ctx, ev.ChatID, sess, text)
	}

	return e.sendMainMenu(ctx, ev.ChatID, ev.UserID, ev.Sender.FirstName)
}

func (e *Engine) handleCommand(ctx context.Context, ev event.TextMessage, text string) error {
	command := strings.ToLower(strings.Fields(text)[0])

	switch command {
	case "/start":
		return e.sendMainMenu(ctx, ev.ChatID, ev.UserID, ev.Sender.FirstName)
	case "/catalog", "/каталог":
		return e.showCatalog(ctx, ev.ChatID, 1)
	case "/create", "/создать":
		return e.startCreateFlow(ctx, ev.ChatID, ev.UserID)
	case "/profile", "/профиль":
		return e.showProfile(ctx, ev.ChatID, ev.UserID)
	case "/help", "/помощь":
		return e.messenger.SendText(ctx, ev.ChatID, helpText())
	default:
		return e.sendMainMenu(ctx, ev.ChatID, ev.UserID, ev.Sender.FirstName)
	}
}

// sendMainMenu resets the user to idle and shows the quick-reply menu
func (e *Engine) sendMainMenu(ctx context.Context, chatID int64, userID, firstName string) error {
	if err := e.store.ClearSession(ctx, userID); err != nil {
		return err
	}
	return e.messenger.SendReplyKeyboard(ctx, chatID, welcomeText(firstName), keyboard.MainMenu())
}

// activeSession returns the decoded create-flow session, or nil when idle.
// A row that fails to decode is treated as corrupt and dropped.
func (e *Engine) activeSession(ctx context.Context, userID string) (*session, error) {
	row, err := e.store.GetSession(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.Action != ActionCreatingRequest {
		return nil, nil
	}

	sess, err := decodeSession(row)
	if err != nil {
		log.Printf("bot: dropping corrupt session for user=%s: %v", userID, err)
		if clearErr := e.store.ClearSession(ctx, userID); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return sess, nil
}

// startCreateFlow initializes an empty accumulator at the title step
func (e *Engine) startCreateFlow(ctx context.Context, chatID int64, userID string) error {
	sess := &session{
		userID: userID,
		action: ActionCreatingRequest,
		step:   StepTitle,
	}
	if err := e.persist(ctx, sess); err != nil {
		return err
	}
	return e.messenger.SendText(ctx, chatID, createRequestStartText())
}

// handleCreateStepText advances the flow on the free-text steps.
// The session is persisted before the prompt goes out: a failed write
// aborts the step with the stored state unchanged.
func (e *Engine) handleCreateStepText(ctx context.Context, chatID int64, sess *session, text string) error {
	switch sess.step {
	case StepTitle:
		sess.draft.Title = text
		sess.step = StepCategory
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendKeyboard(ctx, chatID, chooseCategoryText(), keyboard.Categories())

	case StepDescription:
		sess.draft.Description = text
		sess.step = StepDate
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendText(ctx, chatID, askDateText())

	case StepDate:
		sess.draft.Date = text
		sess.step = StepConfirm
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendKeyboard(ctx, chatID, requestPreviewText(sess.draft), keyboard.ConfirmRequest())

	default:
		// A text message while a keyboard step is pending: repeat the prompt
		// instead of corrupting the accumulated data.
		return e.repeatPrompt(ctx, chatID, sess.step)
	}
}

func (e *Engine) repeatPrompt(ctx context.Context, chatID int64, step Step) error {
	switch step {
	case StepCategory:
		return e.messenger.SendKeyboard(ctx, chatID, chooseCategoryText(), keyboard.Categories())
	case StepType:
		return e.messenger.SendKeyboard(ctx, chatID, chooseTypeText(), keyboard.RequestTypes())
	case StepRegion:
		return e.messenger.SendKeyboard(ctx, chatID, chooseRegionText(), keyboard.Regions())
	case StepConfirm:
		return e.messenger.SendKeyboard(ctx, chatID, "Подтвердите заявку:", keyboard.ConfirmRequest())
	default:
		return nil
	}
}

func (e *Engine) handleButton(ctx context.Context, ev event.ButtonPress) error {
	if ev.CallbackID != "" {
		if err := e.messenger.AnswerCallback(ctx, ev.CallbackID); err != nil {
			log.Printf("bot: answer callback failed: %v", err)
		}
	}

	action, params := splitPayload(ev.Payload)

	switch action {
	case "view_request":
		id, err := paramID(params)
		if err != nil {
			log.Printf("bot: bad view_request payload %q", ev.Payload)
			return nil
		}
		return e.showRequest(ctx, ev.ChatID, id)

	case "respond_request":
		id, err := paramID(params)
		if err != nil {
			log.Printf("bot: bad respond_request payload %q", ev.Payload)
			return nil
		}
		return e.respondToRequest(ctx, ev.ChatID, ev.UserID, id)

	case "page":
		page := 1
		if n, err := paramID(params); err == nil && n > 0 {
			page = int(n)
		}
		return e.showCatalog(ctx, ev.ChatID, page)

	case "filter":
		return e.applyFilter(ctx, ev.ChatID, params)

	case "cancel":
		return e.cancelFlow(ctx, ev.ChatID, ev.UserID)

	case "confirm":
		if len(params) > 0 && params[0] == "yes" {
			return e.confirmRequest(ctx, ev.ChatID, ev.UserID)
		}
		return e.cancelFlow(ctx, ev.ChatID, ev.UserID)

	case "category":
		return e.applyPickedValue(ctx, ev.ChatID, ev.UserID, StepCategory, params)

	case "type":
		return e.applyPickedValue(ctx, ev.ChatID, ev.UserID, StepType, params)

	case "region":
		return e.applyPickedValue(ctx, ev.ChatID, ev.UserID, StepRegion, params)

	default:
		// A button this engine never rendered; drop it rather than
		// breaking whatever flow the user is in.
		log.Printf("bot: unknown callback action %q", ev.Payload)
		return nil
	}
}

// applyPickedValue stores a keyboard pick and advances to the next step.
// The press is ignored unless the session is at exactly the step that
// rendered the keyboard, so stale buttons cannot corrupt the draft.
func (e *Engine) applyPickedValue(ctx context.Context, chatID int64, userID string, step Step, params []string) error {
	if len(params) == 0 || params[0] == "" {
		log.Printf("bot: empty %s pick from user=%s", step, userID)
		return nil
	}
	value := params[0]

	sess, err := e.activeSession(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil || sess.step != step {
		log.Printf("bot: stale %s pick from user=%s, ignoring", step, userID)
		return nil
	}

	switch step {
	case StepCategory:
		sess.draft.Category = value
		sess.step = StepType
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendKeyboard(ctx, chatID, chooseTypeText(), keyboard.RequestTypes())

	case StepType:
		sess.draft.Type = value
		sess.step = StepRegion
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendKeyboard(ctx, chatID, chooseRegionText(), keyboard.Regions())

	case StepRegion:
		sess.draft.Region = value
		sess.step = StepDescription
		if err := e.persist(ctx, sess); err != nil {
			return err
		}
		return e.messenger.SendText(ctx, chatID, askDescriptionText())

	default:
		return nil
	}
}

// confirmRequest materializes the draft into a Request row exactly once.
// The session row is the idempotence guard: duplicate confirm deliveries
// find it already cleared and do nothing.
func (e *Engine) confirmRequest(ctx context.Context, chatID int64, userID string) error {
	sess, err := e.activeSession(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil || sess.step != StepConfirm {
		return nil
	}
	if !sess.draft.Complete() {
		log.Printf("bot: incomplete draft at confirm for user=%s, cancelling", userID)
		return e.cancelFlow(ctx, chatID, userID)
	}

	verified, err := e.store.IsOwnerVerified(ctx, userID)
	if err != nil {
		log.Printf("bot: verification lookup for user=%s failed: %v", userID, err)
		verified = false
	}

	req := &db.Request{
		UserID:      userID,
		Title:       sess.draft.Title,
		Category:    sess.draft.Category,
		Type:        sess.draft.Type,
		Region:      sess.draft.Region,
		Description: sess.draft.Description,
		Date:        sess.draft.Date,
		Verified:    verified,
	}
	if err := e.store.CreateRequest(ctx, req); err != nil {
		// Session stays put; the user can press confirm again.
		if sendErr := e.messenger.SendText(ctx, chatID, actionFailedText()); sendErr != nil {
			log.Printf("bot: failure notice to chat=%d failed: %v", chatID, sendErr)
		}
		return err
	}

	// Commit marker: once the session is gone, a redelivered confirm no-ops.
	if err := e.store.ClearSession(ctx, userID); err != nil {
		return err
	}

	if err := e.messenger.SendText(ctx, chatID, requestCreatedText(req)); err != nil {
		log.Printf("bot: created notice to chat=%d failed: %v", chatID, err)
	}
	return e.messenger.SendReplyKeyboard(ctx, chatID, welcomeText(""), keyboard.MainMenu())
}

// cancelFlow discards the accumulator from any state
func (e *Engine) cancelFlow(ctx context.Context, chatID int64, userID string) error {
	if err := e.store.ClearSession(ctx, userID); err != nil {
		return err
	}
	if err := e.messenger.SendText(ctx, chatID, cancelledText()); err != nil {
		log.Printf("bot: cancel notice to chat=%d failed: %v", chatID, err)
	}
	return e.messenger.SendReplyKeyboard(ctx, chatID, welcomeText(""), keyboard.MainMenu())
}

func (e *Engine) persist(ctx context.Context, sess *session) error {
	row, err := sess.encode()
	if err != nil {
		return err
	}
	return e.store.SetSession(ctx, row)
}

func splitPayload(payload string) (string, []string) {
	parts := strings.Split(payload, ":")
	return parts[0], parts[1:]
}

func paramID(params []string) (int64, error) {
	if len(params) == 0 {
		return 0, errors.New("missing id")
	}
	return strconv.ParseInt(params[0], 10, 64)
}
