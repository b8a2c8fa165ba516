package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-qa-be/internal/dto"
	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/internal/repository/contract"
	"finance-qa-be/pkg/assistant"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/assistant/safety"
	"finance-qa-be/pkg/assistant/turn"
	"finance-qa-be/pkg/events"
	"finance-qa-be/pkg/llm"
	"finance-qa-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
	ErrSampleNotFound = errors.New("sample prompt not found")
)

const moduleName = "AssistantService"

type IAssistantService interface {
	Catalog(ctx context.Context) *dto.CatalogResponse
	Samples(ctx context.Context) []dto.SampleDTO

	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id string) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, id string) error

	SetMode(ctx context.Context, id string, request *dto.SetModeRequest) (*dto.SessionResponse, error)
	SetTemperature(ctx context.Context, id string, request *dto.SetTemperatureRequest) (*dto.SessionResponse, error)
	SetNotes(ctx context.Context, id string, notes string) (*dto.SessionResponse, error)
	ClearNotes(ctx context.Context, id string) (*dto.SessionResponse, error)
	SetIncludeNotes(ctx context.Context, id string, request *dto.SetIncludeNotesRequest) (*dto.SessionResponse, error)

	SendChat(ctx context.Context, id string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	SendSample(ctx context.Context, id string, key string) (*dto.SendChatResponse, error)
}

// AssistantOptions are the server-wide defaults applied to new sessions and turns.
type AssistantOptions struct {
	DefaultMode        prompt.Mode
	DefaultTemperature float64
	Model              string
	RequestTimeout     time.Duration

	// SessionTTL bounds how long an idle session keeps its turn lock.
	SessionTTL time.Duration
}

type assistantService struct {
	repo      contract.SessionRepository
	provider  llm.LLMProvider
	publisher IPublisherService
	logger    logger.ILogger
	opts      AssistantOptions

	locksMu sync.Mutex
	locks   *cache.Cache
}

func NewAssistantService(
	repo contract.SessionRepository,
	provider llm.LLMProvider,
	publisher IPublisherService,
	log logger.ILogger,
	opts AssistantOptions,
) IAssistantService {
	if !opts.DefaultMode.Valid() {
		opts.DefaultMode = prompt.DefaultMode
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	return &assistantService{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		logger:    log,
		opts:      opts,
		locks:     cache.New(opts.SessionTTL, opts.SessionTTL/6),
	}
}

func (s *assistantService) Catalog(ctx context.Context) *dto.CatalogResponse {
	modes := prompt.Modes()
	res := &dto.CatalogResponse{
		Modes:              make([]dto.ModeDTO, 0, len(modes)),
		DefaultMode:        string(s.opts.DefaultMode),
		DefaultTemperature: s.opts.DefaultTemperature,
		Caption:            prompt.Caption,
		Disclaimer:         prompt.Disclaimer,
		Advisory:           safety.Advisory,
		InputPlaceholder:   prompt.InputPlaceholder,
	}
	for _, m := range modes {
		guidance, _ := m.Guidance()
		res.Modes = append(res.Modes, dto.ModeDTO{Name: string(m), Guidance: guidance})
	}
	return res
}

func (s *assistantService) Samples(ctx context.Context) []dto.SampleDTO {
	samples := prompt.Samples()
	res := make([]dto.SampleDTO, 0, len(samples))
	for _, sample := range samples {
		res = append(res, dto.SampleDTO{Key: sample.Key, Label: sample.Label, Prompt: sample.Prompt})
	}
	return res
}

func (s *assistantService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	mode := s.opts.DefaultMode
	if request.Mode != "" {
		parsed, err := prompt.ParseMode(request.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	settings := store.Settings{Temperature: s.opts.DefaultTemperature, IncludeNotes: true}
	if request.Temperature != nil {
		settings.Temperature = *request.Temperature
	}
	if request.IncludeNotes != nil {
		settings.IncludeNotes = *request.IncludeNotes
	}
	if err := (turn.Settings{Temperature: settings.Temperature}).Validate(); err != nil {
		return nil, err
	}

	// the seed instruction always carries the initial notes, as on first load
	state, err := conversation.New(mode, request.Notes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &store.Session{
		ID:           uuid.NewString(),
		Settings:     settings,
		Conversation: state.Snapshot(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info(moduleName, "Session created", map[string]interface{}{
		"session_id": session.ID,
		"mode":       string(mode),
	})
	return toSessionResponse(session, state)
}

func (s *assistantService) GetSession(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, state, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, state)
}

func (s *assistantService) DeleteSession(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, contract.ErrSessionNotFound) {
			s.dropLock(id)
		}
		return err
	}
	s.dropLock(id)

	s.logger.Info(moduleName, "Session deleted", map[string]interface{}{"session_id": id})
	return nil
}

func (s *assistantService) SetMode(ctx context.Context, id string, request *dto.SetModeRequest) (*dto.SessionResponse, error) {
	mode, err := prompt.ParseMode(request.Mode)
	if err != nil {
		return nil, err
	}
	return s.updateSettings(ctx, id, "mode", func(_ *store.Session, state *conversation.State) error {
		return state.SetMode(mode)
	})
}

func (s *assistantService) SetTemperature(ctx context.Context, id string, request *dto.SetTemperatureRequest) (*dto.SessionResponse, error) {
	if request.Temperature == nil {
		return nil, &assistant.ValidationError{Field: "temperature", Reason: "is required"}
	}
	temperature := *request.Temperature
	if err := (turn.Settings{Temperature: temperature}).Validate(); err != nil {
		return nil, err
	}
	return s.updateSettings(ctx, id, "temperature", func(session *store.Session, _ *conversation.State) error {
		session.Settings.Temperature = temperature
		return nil
	})
}

func (s *assistantService) SetNotes(ctx context.Context, id string, notes string) (*dto.SessionResponse, error) {
	return s.updateSettings(ctx, id, "notes", func(_ *store.Session, state *conversation.State) error {
		state.SetNotes(notes)
		return nil
	})
}

func (s *assistantService) ClearNotes(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.updateSettings(ctx, id, "notes", func(_ *store.Session, state *conversation.State) error {
		state.ClearNotes()
		return nil
	})
}

func (s *assistantService) SetIncludeNotes(ctx context.Context, id string, request *dto.SetIncludeNotesRequest) (*dto.SessionResponse, error) {
	if request.IncludeNotes == nil {
		return nil, &assistant.ValidationError{Field: "include_notes", Reason: "is required"}
	}
	include := *request.IncludeNotes
	return s.updateSettings(ctx, id, "include_notes", func(session *store.Session, _ *conversation.State) error {
		session.Settings.IncludeNotes = include
		return nil
	})
}

// updateSettings applies a settings event under the session lock. Settings
// events wait for an in-flight turn instead of failing.
func (s *assistantService) updateSettings(
	ctx context.Context,
	id string,
	field string,
	apply func(*store.Session, *conversation.State) error,
) (*dto.SessionResponse, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	session, state, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(session, state); err != nil {
		return nil, err
	}
	if err := s.save(ctx, session, state); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeSettingsChanged, id, map[string]interface{}{
		"field":         field,
		"mode":          string(state.Mode()),
		"temperature":   session.Settings.Temperature,
		"include_notes": session.Settings.IncludeNotes,
	}))
	return toSessionResponse(session, state)
}

func (s *assistantService) SendSample(ctx context.Context, id string, key string) (*dto.SendChatResponse, error) {
	sample, ok := prompt.LookupSample(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSampleNotFound, key)
	}
	return s.SendChat(ctx, id, &dto.SendChatRequest{Message: sample.Prompt})
}

func (s *assistantService) SendChat(ctx context.Context, id string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	lock := s.lockFor(id)
	if !lock.TryLock() {
		return nil, ErrTurnInProgress
	}
	defer lock.Unlock()

	session, state, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	controller := turn.NewController(state, s.provider,
		turn.WithNotifier(&advisoryPublisher{service: s, sessionID: id}),
		turn.WithModel(s.opts.Model),
		turn.WithTimeout(s.opts.RequestTimeout),
	)

	start := time.Now()
	outcome, err := controller.HandleTurn(ctx, request.Message, turn.Settings{
		Temperature:  session.Settings.Temperature,
		IncludeNotes: session.Settings.IncludeNotes,
	})
	if err != nil {
		if assistant.IsCompletionError(err) {
			s.logger.Error(moduleName, "Completion failed", map[string]interface{}{
				"session_id": id,
				"provider":   s.provider.Name(),
				"error":      err,
			})
			// the unanswered user turn is kept so the question stays in history
			if saveErr := s.save(ctx, session, state); saveErr != nil {
				s.logger.Error(moduleName, "Failed to save session after completion failure", map[string]interface{}{
					"session_id": id,
					"error":      saveErr.Error(),
				})
			}
			s.publish(ctx, events.New(events.TypeTurnFailed, id, map[string]interface{}{
				"error": err.Error(),
			}))
		}
		return nil, err
	}

	res := &dto.SendChatResponse{
		SessionId:            id,
		Submitted:            outcome.Submitted,
		Reply:                outcome.Reply,
		RiskFlagged:          outcome.RiskFlagged,
		RiskFlags:            outcome.RiskFlags,
		InstructionRefreshed: outcome.InstructionRefreshed,
	}
	if outcome.RiskFlagged {
		res.Advisory = safety.Advisory
	}

	if outcome.Submitted {
		if err := s.save(ctx, session, state); err != nil {
			return nil, err
		}
		s.logger.Info(moduleName, "Turn completed", map[string]interface{}{
			"session_id":  id,
			"mode":        string(state.Mode()),
			"turns":       state.Len(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		s.publish(ctx, events.New(events.TypeTurnCompleted, id, map[string]interface{}{
			"reply": outcome.Reply,
			"turns": state.Len(),
		}))
	}

	res.History = toTurnDTOs(state.History())
	return res, nil
}

// lockFor returns the turn lock of a session. Every use pushes its expiry
// back by SessionTTL, so only idle sessions lose their lock.
func (s *assistantService) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	var lock *sync.Mutex
	if x, found := s.locks.Get(id); found {
		lock = x.(*sync.Mutex)
	} else {
		lock = &sync.Mutex{}
	}
	s.locks.SetDefault(id, lock)
	return lock
}

func (s *assistantService) dropLock(id string) {
	s.locksMu.Lock()
	s.locks.Delete(id)
	s.locksMu.Unlock()
}

// loadLocked loads a session for a caller holding its lock. A missing session
// gives its lock back so unknown ids leave nothing behind.
func (s *assistantService) loadLocked(ctx context.Context, id string) (*store.Session, *conversation.State, error) {
	session, state, err := s.load(ctx, id)
	if errors.Is(err, contract.ErrSessionNotFound) {
		s.dropLock(id)
	}
	return session, state, err
}

func (s *assistantService) load(ctx context.Context, id string) (*store.Session, *conversation.State, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	state, err := conversation.Restore(session.Conversation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	return session, state, nil
}

func (s *assistantService) save(ctx context.Context, session *store.Session, state *conversation.State) error {
	session.Conversation = state.Snapshot()
	session.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *assistantService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(moduleName, "Failed to publish event", map[string]interface{}{
			"type":       event.EventType(),
			"session_id": event.SessionID(),
			"error":      err.Error(),
		})
	}
}

// advisoryPublisher turns the risk banner into a risk_flagged event.
type advisoryPublisher struct {
	service   *assistantService
	sessionID string
}

func (a *advisoryPublisher) Advisory(ctx context.Context, text string, flags []string) {
	a.service.logger.Warn(moduleName, "Risk terms detected", map[string]interface{}{
		"session_id": a.sessionID,
		"flags":      flags,
	})
	a.service.publish(ctx, events.New(events.TypeRiskFlagged, a.sessionID, map[string]interface{}{
		"advisory": text,
		"flags":    flags,
	}))
}

func toSessionResponse(session *store.Session, state *conversation.State) (*dto.SessionResponse, error) {
	instruction, err := state.ActiveInstruction(session.Settings.IncludeNotes)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Id:                session.ID,
		Mode:              string(state.Mode()),
		Notes:             state.Notes(),
		Temperature:       session.Settings.Temperature,
		IncludeNotes:      session.Settings.IncludeNotes,
		ActiveInstruction: instruction,
		History:           toTurnDTOs(state.History()),
		CreatedAt:         session.CreatedAt,
		UpdatedAt:         session.UpdatedAt,
	}, nil
}

func toTurnDTOs(turns []conversation.Turn) []dto.TurnDTO {
	res := make([]dto.TurnDTO, 0, len(turns))
	for _, t := range turns {
		res = append(res, dto.TurnDTO{Role: string(t.Role), Content: t.Content})
	}
	return res
}
