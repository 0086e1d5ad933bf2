package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Run status constants
const (
	RunCreated    = "created"
	RunStarted    = "started"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
)

// End card form field types
const (
	FieldText   = "text"
	FieldEmail  = "email"
	FieldNumber = "number"
	FieldTel    = "tel"
	FieldDate   = "date"
)

// Answer is a swipe: 0 = left/no, 1 = right/yes
type Answer int

const (
	AnswerNo  Answer = 0
	AnswerYes Answer = 1
)

func (a Answer) Valid() bool {
	return a == AnswerNo || a == AnswerYes
}

// DefaultOptions are the labels used when a card draft omits them
var DefaultOptions = [2]string{"No", "Yes"}

// Branch is one option's outgoing edge. The zero value is Sequential.
type Branch struct {
	target string
}

// Sequential continues with the next card in flow order
func Sequential() Branch { return Branch{} }

// GoTo jumps to an explicit card
func GoTo(cardID string) Branch { return Branch{target: cardID} }

// Target returns the explicit card, if any
func (b Branch) Target() (string, bool) {
	return b.target, b.target != ""
}

func (b Branch) IsSequential() bool { return b.target == "" }

// MarshalJSON encodes Sequential as null and GoTo as the target card ID
func (b Branch) MarshalJSON() ([]byte, error) {
	if b.target == "" {
		return []byte("null"), nil
	}
	return json.Marshal(b.target)
}

func (b *Branch) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = Sequential()
		return nil
	}
	var target string
	if err := json.Unmarshal(data, &target); err != nil {
		return err
	}
	*b = GoTo(target)
	return nil
}

// Domain types

// Card is a binary-choice node of a flow graph
type Card struct {
	ID          string    `json:"id"`
	FlowID      string    `json:"flow_id"`
	Position    int       `json:"position"`
	Question    string    `json:"question"`
	Description string    `json:"description"`
	Options     [2]string `json:"options"`
	Branches    [2]Branch `json:"branches"`
	Scores      [2]int    `json:"scores"`
	Skippable   bool      `json:"skippable"`
}

// Score returns the points for an answer; anything outside {0,1} scores 0
func (c Card) Score(a Answer) int {
	if !a.Valid() {
		return 0
	}
	return c.Scores[a]
}

// View strips scoring and branching before a card is shown to a participant
func (c Card) View() CardView {
	return CardView{
		ID:          c.ID,
		Question:    c.Question,
		Description: c.Description,
		Options:     c.Options,
		Skippable:   c.Skippable,
	}
}

// CardView is what participants see
type CardView struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Description string    `json:"description,omitempty"`
	Options     [2]string `json:"options"`
	Skippable   bool      `json:"skippable"`
}

// CardConnection is a materialized branch edge
type CardConnection struct {
	SourceCardID string `json:"source_card_id"`
	SourceOption Answer `json:"source_option"`
	TargetCardID string `json:"target_card_id"`
}

type FormField struct {
	Label    string `json:"label" yaml:"label" validate:"required,max=255"`
	Type     string `json:"type" yaml:"type" validate:"required,oneof=text email number tel date"`
	Required bool   `json:"required" yaml:"required"`
}

// EndCard is the terminal message, optionally with a capture form
type EndCard struct {
	Message    string      `json:"message" yaml:"message" validate:"required"`
	FormFields []FormField `json:"form_fields,omitempty" yaml:"form_fields" validate:"max=20,dive"`
}

type Flow struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Cards          []Card    `json:"cards"`
	EndCards       []EndCard `json:"end_cards"`
	IsPublic       bool      `json:"is_public"`
	AllowAnonymous bool      `json:"allow_anonymous"`
	PublicSlug     *string   `json:"public_slug,omitempty"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ResultTemplate maps an inclusive score range onto an outcome
type ResultTemplate struct {
	ID        string    `json:"id"`
	FlowID    string    `json:"flow_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	MinScore  int       `json:"min_score"`
	MaxScore  *int      `json:"max_score"` // nil = unbounded
	CTAText   *string   `json:"cta_text,omitempty"`
	CTAURL    *string   `json:"cta_url,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Matches reports whether score falls in [MinScore, MaxScore]
func (t ResultTemplate) Matches(score int) bool {
	if score < t.MinScore {
		return false
	}
	return t.MaxScore == nil || score <= *t.MaxScore
}

type FlowRun struct {
	ID               string     `json:"id"`
	FlowID           string     `json:"flow_id"`
	FlowVersion      int        `json:"flow_version"`
	UserID           *string    `json:"user_id,omitempty"`
	SessionToken     *string    `json:"-"` // Never expose in JSON
	Status           string     `json:"status"`
	CurrentCardID    *string    `json:"current_card_id,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TotalScore       int        `json:"total_score"`
	ScoreCalculated  bool       `json:"score_calculated"`
	ResultTemplateID *string    `json:"result_template_id,omitempty"`
	TemplateAssigned bool       `json:"-"`
	ShareToken       string     `json:"share_token"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (r FlowRun) IsAnonymous() bool { return r.UserID == nil }

func (r FlowRun) IsCompleted() bool { return r.CompletedAt != nil }

// Result is the recorded answer for one card of one run
type Result struct {
	RunID      string     `json:"run_id"`
	CardID     string     `json:"card_id"`
	Position   int        `json:"position"`
	Answer     *Answer    `json:"answer"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// Caller is the identity threaded through every engine operation.
// UserID is empty for anonymous participants.
type Caller struct {
	UserID       string
	SessionToken string
	IP           string
	UserAgent    string
}

func (c Caller) Authenticated() bool { return c.UserID != "" }

// SecurityEvent records a stored branch that pointed outside its flow
type SecurityEvent struct {
	FlowID        string `json:"flow_id"`
	RunID         string `json:"run_id"`
	SourceCardID  string `json:"source_card"`
	InvalidTarget string `json:"invalid_target"`
	Answer        Answer `json:"answer"`
	RequesterIP   string `json:"requester_ip"`
	UserAgent     string `json:"user_agent"`
}

// Request types

// CardDraft is an authored card before it has an ID.
// Branches hold indices into the same draft list; null means sequential.
type CardDraft struct {
	Question    string   `json:"question" yaml:"question" validate:"required,max=255"`
	Description string   `json:"description" yaml:"description" validate:"max=255"`
	Options     []string `json:"options" yaml:"options" validate:"omitempty,len=2,dive,required,max=255"`
	Branches    []*int   `json:"branches" yaml:"branches" validate:"max=2"`
	Scores      []int    `json:"scores" yaml:"scores" validate:"max=2"`
	Skippable   bool     `json:"skippable" yaml:"skippable"`
}

type SaveFlowRequest struct {
	Name           string      `json:"name" yaml:"name" validate:"required,max=255"`
	Description    string      `json:"description" yaml:"description"`
	Cards          []CardDraft `json:"cards" yaml:"cards" validate:"required,min=1,max=200,dive"`
	EndCards       []EndCard   `json:"end_cards" yaml:"end_cards" validate:"max=10,dive"`
	IsPublic       bool        `json:"is_public" yaml:"is_public"`
	AllowAnonymous *bool       `json:"allow_anonymous" yaml:"allow_anonymous"`
}

type TemplateRequest struct {
	Title    string  `json:"title" yaml:"title" validate:"required,max=255"`
	Content  string  `json:"content" yaml:"content" validate:"required"`
	ImageURL *string `json:"image_url" yaml:"image_url" validate:"omitempty,url"`
	MinScore int     `json:"min_score" yaml:"min_score" validate:"gte=0"`
	MaxScore *int    `json:"max_score" yaml:"max_score" validate:"omitempty,gte=0"`
	CTAText  *string `json:"cta_text" yaml:"cta_text" validate:"omitempty,max=255"`
	CTAURL   *string `json:"cta_url" yaml:"cta_url" validate:"omitempty,url"`
	Order    int     `json:"order" yaml:"order" validate:"gte=0"`
}

type SubmitAnswerRequest struct {
	CardID string `json:"card_id"`
	Answer *int   `json:"answer"`
}

type SkipCardRequest struct {
	CardID string `json:"card_id"`
}

type StopRunRequest struct {
	FormFields map[string]string `json:"form_fields"`
}

// Response types

type SaveFlowResponse struct {
	FlowID     string  `json:"flow_id"`
	Version    int     `json:"version"`
	PublicSlug *string `json:"public_slug,omitempty"`
	PublicURL  string  `json:"public_url,omitempty"`
}

type CreateRunResponse struct {
	RunID        string     `json:"run_id"`
	SessionToken string     `json:"session_token,omitempty"`
	ShareToken   string     `json:"share_token"`
	Cards        []CardView `json:"cards"`
}

type StartRunResponse struct {
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CurrentCard *CardView  `json:"current_card"`
}

type SubmitAnswerResponse struct {
	NextCard       *CardView       `json:"next_card"`
	Completed      bool            `json:"completed"`
	TotalScore     *int            `json:"total_score,omitempty"`
	ResultTemplate *ResultTemplate `json:"result_template,omitempty"`
}

type StopRunResponse struct {
	TotalScore     int             `json:"total_score"`
	ResultTemplate *ResultTemplate `json:"result_template"`
	CompletedAt    time.Time       `json:"completed_at"`
}

type RunView struct {
	Run            FlowRun         `json:"run"`
	CurrentCard    *CardView       `json:"current_card"`
	Answered       int             `json:"answered"`
	TotalCards     int             `json:"total_cards"`
	Duration       string          `json:"duration,omitempty"`
	ResultTemplate *ResultTemplate `json:"result_template,omitempty"`
}

type SharedResultResponse struct {
	FlowName       string          `json:"flow_name"`
	TotalScore     int             `json:"total_score"`
	ResultTemplate *ResultTemplate `json:"result_template"`
	CompletedAt    time.Time       `json:"completed_at"`
}

type PublicFlowResponse struct {
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CardCount      int        `json:"card_count"`
	AllowAnonymous bool       `json:"allow_anonymous"`
	Cards          []CardView `json:"cards"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
