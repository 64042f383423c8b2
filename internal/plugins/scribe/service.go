package scribe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/catalog"
	"github.com/emberfall/lorekeep/internal/llm"
	"github.com/emberfall/lorekeep/internal/parser"
	"github.com/emberfall/lorekeep/internal/plugins/entities"
	"github.com/emberfall/lorekeep/internal/plugins/settings"
	"github.com/emberfall/lorekeep/internal/relctx"
)

// EntityStore is the slice of the entity service scribe consumes.
type EntityStore interface {
	Create(ctx context.Context, campaignID, userID string, input entities.CreateEntityInput) (*entities.Entity, error)
	GetByID(ctx context.Context, id string) (*entities.Entity, error)
}

// NameLister resolves the campaign's entity names for mention scanning.
type NameLister interface {
	ListNames(ctx context.Context, campaignID string) (map[string]string, error)
}

// SettingsReader is the slice of the settings service scribe consumes.
type SettingsReader interface {
	ContextTuning(ctx context.Context, campaignID string) settings.ContextTuning
	TypeCustomization(ctx context.Context, campaignID string) settings.TypeCustomization
	DebugEnabled(ctx context.Context, campaignID string) bool
}

// ScribeService handles the AI workflows.
type ScribeService interface {
	// Parse turns raw AI output into entity candidates. It never fails;
	// malformed input yields an empty result with per-section errors.
	Parse(ctx context.Context, campaignID string, req ParseRequest) ParseResponse

	// Save persists one reviewed candidate. Candidates with validation
	// errors are refused.
	Save(ctx context.Context, campaignID, userID string, req SaveRequest) (*entities.Entity, error)

	// Summarize produces a short summary of an entity or free text via the
	// configured LLM, falling back to first-sentence extraction when no
	// LLM is configured.
	Summarize(ctx context.Context, campaignID string, req SummarizeRequest) (string, error)

	// BuildContext builds the relationship digest for one entity.
	BuildContext(ctx context.Context, campaignID, entityID string, opts relctx.Options) (*ContextResponse, error)

	// DetectMentions finds known entity names in free text.
	DetectMentions(ctx context.Context, campaignID, text string) ([]Mention, error)
}

// scribeService implements ScribeService.
type scribeService struct {
	entities EntityStore
	names    NameLister
	settings SettingsReader
	builder  *relctx.Builder
	llm      llm.Client
}

// NewScribeService creates a new scribe service. llmClient may be nil, in
// which case summaries degrade to first-sentence extraction.
func NewScribeService(entityStore EntityStore, names NameLister, settingsSvc SettingsReader, store relctx.Store, llmClient llm.Client) ScribeService {
	return &scribeService{
		entities: entityStore,
		names:    names,
		settings: settingsSvc,
		builder:  relctx.NewBuilder(store),
		llm:      llmClient,
	}
}

// --- Parse ---

func (s *scribeService) Parse(ctx context.Context, campaignID string, req ParseRequest) ParseResponse {
	tc := s.settings.TypeCustomization(ctx, campaignID)

	opts := parser.ParseOptions{
		ExcludeTypes:  req.ExcludeTypes,
		PreferredType: req.PreferredType,
		MinConfidence: req.MinConfidence,
		CustomTypes:   tc.CustomTypes,
	}
	result := parser.ParseAIResponse(req.Text, opts)

	slog.Info("ai output parsed",
		slog.String("campaign_id", campaignID),
		slog.Int("entities", len(result.Entities)),
		slog.Int("errors", len(result.Errors)),
	)

	resp := ParseResponse{ParseResult: result}
	if s.settings.DebugEnabled(ctx, campaignID) {
		debug := &ParseDebug{
			MinConfidence: req.MinConfidence,
			PreferredType: req.PreferredType,
			ExcludeTypes:  req.ExcludeTypes,
		}
		for _, ct := range tc.CustomTypes {
			debug.CustomTypes = append(debug.CustomTypes, ct.Key)
		}
		resp.Debug = debug
	}
	return resp
}

// --- Save ---

func (s *scribeService) Save(ctx context.Context, campaignID, userID string, req SaveRequest) (*entities.Entity, error) {
	cand := req.Entity
	if strings.TrimSpace(cand.Name) == "" {
		return nil, apperror.NewValidation("candidate has no name")
	}

	tc := s.settings.TypeCustomization(ctx, campaignID)
	def, ok := catalog.Definition(cand.Type, tc.CustomTypes, tc.Overrides)
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown entity type %q", cand.Type))
	}

	// A candidate carrying unresolved validation errors, or failing a fresh
	// validation pass, is refused outright.
	errs := parser.ValidateFields(cand.Fields, def.Fields)
	for k, v := range cand.ValidationErrors {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidation(flattenErrors(errs))
	}

	entity, err := s.entities.Create(ctx, campaignID, userID, entities.CreateEntityInput{
		Type:          def.Key,
		Name:          cand.Name,
		Description:   cand.Description,
		Summary:       cand.Summary,
		Notes:         req.Notes,
		PlayerVisible: req.PlayerVisible,
		Tags:          cand.Tags,
		Fields:        cand.Fields,
		Metadata: &entities.Metadata{
			AIGenerated:      true,
			SourceConfidence: cand.Confidence,
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ai candidate saved",
		slog.String("campaign_id", campaignID),
		slog.String("entity_id", entity.ID),
		slog.String("type", entity.Type),
	)
	return entity, nil
}

// --- Summarize ---

// summarizeSystemPrompt frames the model as a neutral archivist so generated
// summaries stay spoiler-free.
const summarizeSystemPrompt = "You are a campaign archivist. Write a single " +
	"concise sentence summarizing the given tabletop RPG content for a " +
	"reference card. Do not reveal secrets or GM-only information. Respond " +
	"with the sentence only."

func (s *scribeService) Summarize(ctx context.Context, campaignID string, req SummarizeRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if req.EntityID != "" {
		entity, err := s.entities.GetByID(ctx, req.EntityID)
		if err != nil {
			return "", err
		}
		if entity.CampaignID != campaignID {
			return "", apperror.NewNotFound("entity not found")
		}
		text = entity.Name + "\n" + entity.Description
	}
	if text == "" {
		return "", apperror.NewBadRequest("nothing to summarize")
	}

	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = 150
	}

	if s.llm == nil {
		return parser.GenerateSummary(text, maxLength), nil
	}

	out, err := s.llm.Complete(ctx, summarizeSystemPrompt, text)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("summarize: %w", err))
	}
	summary := strings.TrimSpace(out)
	if summary == "" {
		return parser.GenerateSummary(text, maxLength), nil
	}
	if len(summary) > maxLength {
		summary = parser.GenerateSummary(summary, maxLength)
	}
	return summary, nil
}

// --- Relationship context ---

func (s *scribeService) BuildContext(ctx context.Context, campaignID, entityID string, opts relctx.Options) (*ContextResponse, error) {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity.CampaignID != campaignID {
		return nil, apperror.NewNotFound("entity not found")
	}

	// Campaign tuning fills whatever the request leaves at zero.
	tuning := s.settings.ContextTuning(ctx, campaignID)
	if opts.MaxDepth == 0 {
		opts.MaxDepth = tuning.MaxDepth
	}
	if opts.MaxRelatedEntities == 0 {
		opts.MaxRelatedEntities = tuning.MaxRelatedEntities
	}
	if opts.MaxCharacters == 0 {
		opts.MaxCharacters = tuning.MaxCharacters
	}
	opts.IncludeStrength = opts.IncludeStrength || tuning.IncludeStrength
	opts.IncludeNotes = opts.IncludeNotes || tuning.IncludeNotes

	built, err := s.builder.Build(ctx, entityID, opts)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("building context: %w", err))
	}

	return &ContextResponse{
		Context: built,
		Prompt:  relctx.FormatForPrompt(built),
		Stats:   relctx.ContextStats(built),
	}, nil
}

// --- Mentions ---

func (s *scribeService) DetectMentions(ctx context.Context, campaignID, text string) ([]Mention, error) {
	if strings.TrimSpace(text) == "" {
		return []Mention{}, nil
	}
	names, err := s.names.ListNames(ctx, campaignID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	type target struct {
		id   string
		name string
	}
	targets := make([]target, 0, len(names))
	for id, name := range names {
		if len(name) < 2 {
			continue
		}
		targets = append(targets, target{id: id, name: name})
	}
	// Longest names first so "Captain Aldric" beats "Aldric"; ties broken
	// by name for determinism.
	sort.Slice(targets, func(i, j int) bool {
		if len(targets[i].name) != len(targets[j].name) {
			return len(targets[i].name) > len(targets[j].name)
		}
		return targets[i].name < targets[j].name
	})

	// Match against the original text so offsets stay valid. Lowering the
	// whole text first would shift byte offsets for characters whose case
	// mapping changes length (e.g. U+0130).
	claimed := make([]bool, len(text))
	var mentions []Mention

	for _, t := range targets {
		for start := 0; start < len(text); {
			_, size := utf8.DecodeRuneInString(text[start:])
			end, ok := foldMatch(text, t.name, start)
			if !ok || !wordBounded(text, start, end) || rangeClaimed(claimed, start, end) {
				start += size
				continue
			}
			for j := start; j < end; j++ {
				claimed[j] = true
			}
			mentions = append(mentions, Mention{
				EntityID: t.id,
				Name:     t.name,
				Start:    start,
				End:      end,
			})
			start = end
		}
	}

	sort.Slice(mentions, func(i, j int) bool { return mentions[i].Start < mentions[j].Start })
	if mentions == nil {
		mentions = []Mention{}
	}
	return mentions, nil
}

// foldMatch reports whether needle matches s at byte offset start, ignoring
// case, and returns the end offset of the match in s. The matched span in s
// can differ in byte length from needle.
func foldMatch(s, needle string, start int) (end int, ok bool) {
	i := start
	for _, nr := range needle {
		if i >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if unicode.ToLower(sr) != unicode.ToLower(nr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// wordBounded reports whether s[start:end] is not embedded in a larger word.
func wordBounded(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func rangeClaimed(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

// flattenErrors joins a field-error map into one message.
func flattenErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, errs[k])
	}
	return strings.Join(parts, "; ")
}
