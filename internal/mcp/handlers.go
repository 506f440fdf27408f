package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/reciprocal"
)

// --- Input/Output types ---

// ValidateInput defines parameters for the threadshift_validate tool.
type ValidateInput struct {
	Body    model.BodyMap `json:"body" jsonschema:"body map keyed by zone name"`
	Partial bool          `json:"partial,omitempty" jsonschema:"skip required-zone presence checks"`
}

// ValidateOutput lists schema violations.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// CharacterInput is a character as supplied by the caller.
type CharacterInput struct {
	ID   string        `json:"id" jsonschema:"character id"`
	Name string        `json:"name,omitempty" jsonschema:"display name"`
	Body model.BodyMap `json:"body,omitempty" jsonschema:"body map keyed by zone name"`
}

// SwapInput defines parameters for the threadshift_swap tool.
type SwapInput struct {
	Source  CharacterInput `json:"source" jsonschema:"character the garment's zones are copied from"`
	Target  CharacterInput `json:"target" jsonschema:"character that receives the zones"`
	Garment string         `json:"garment" jsonschema:"garment reference such as 5.0103 (character 5, type code 01, sequence 03)"`
}

// Record is a swap record flattened for tool output.
type Record struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Garment      string   `json:"garment"`
	GarmentType  string   `json:"garment_type"`
	Zones        []string `json:"zones"`
	SkippedZones []string `json:"skipped_zones,omitempty"`
	Timestamp    string   `json:"timestamp"`
	Status       string   `json:"status"`
	ReversedAt   string   `json:"reversed_at,omitempty"`
}

// SwapOutput carries the updated characters or the failure reason.
type SwapOutput struct {
	SwapID string         `json:"swap_id,omitempty"`
	Source CharacterInput `json:"source"`
	Target CharacterInput `json:"target"`
	Record *Record        `json:"record,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ReverseInput defines parameters for the threadshift_reverse tool.
type ReverseInput struct {
	SwapID string `json:"swap_id" jsonschema:"id returned by threadshift_swap"`
}

// ReverseOutput carries the restored characters.
type ReverseOutput struct {
	SwapID string          `json:"swap_id"`
	Status string          `json:"status,omitempty"`
	Source *CharacterInput `json:"source,omitempty"`
	Target *CharacterInput `json:"target,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PairInput defines parameters for the preview and reciprocal tools.
type PairInput struct {
	CharA    model.BodyMap `json:"charA" jsonschema:"first body map"`
	CharB    model.BodyMap `json:"charB" jsonschema:"second body map"`
	Garments []string      `json:"garmentsWorn" jsonschema:"garment references or type names"`
}

// StatusInput is empty.
type StatusInput struct{}

// HistoryInput defines parameters for the threadshift_history tool.
type HistoryInput struct {
	Character string `json:"character,omitempty" jsonschema:"only swaps this character took part in"`
	Limit     int    `json:"limit,omitempty" jsonschema:"return at most this many, newest kept"`
	Stored    bool   `json:"stored,omitempty" jsonschema:"read the persisted history instead of the live one"`
}

// HistoryOutput lists swap records.
type HistoryOutput struct {
	Swaps []Record `json:"swaps"`
}

// --- Handlers ---

func (s *Server) handleValidate(ctx context.Context, req *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ValidateOutput, error) {
	var res bodymap.Result
	switch {
	case input.Body == nil:
		res = bodymap.Validate(nil)
	case input.Partial:
		res = bodymap.ValidatePartial(input.Body)
	default:
		res = bodymap.Validate(input.Body)
	}
	return nil, ValidateOutput{Valid: res.Valid, Errors: res.Errors}, nil
}

func (s *Server) handleSwap(ctx context.Context, req *mcpsdk.CallToolRequest, input SwapInput) (*mcpsdk.CallToolResult, SwapOutput, error) {
	src := &model.Character{ID: input.Source.ID, Name: input.Source.Name, Body: input.Source.Body}
	tgt := &model.Character{ID: input.Target.ID, Name: input.Target.Name, Body: input.Target.Body}

	eng := s.core.Engine()
	id, err := eng.PerformSwap(ctx, src, tgt, input.Garment)
	if err != nil {
		s.log.Info("swap rejected", zap.String("garment", input.Garment), zap.Error(err))
		return &mcpsdk.CallToolResult{IsError: true}, SwapOutput{
			Source: input.Source,
			Target: input.Target,
			Error:  err.Error(),
		}, nil
	}

	out := SwapOutput{
		SwapID: id,
		Source: fromCharacter(src),
		Target: fromCharacter(tgt),
	}
	if rec, ok := eng.Swap(id); ok {
		r := toRecord(rec)
		out.Record = &r
	}
	return nil, out, nil
}

func (s *Server) handleReverse(ctx context.Context, req *mcpsdk.CallToolRequest, input ReverseInput) (*mcpsdk.CallToolResult, ReverseOutput, error) {
	eng := s.core.Engine()
	src, tgt, _ := eng.Participants(input.SwapID)
	if err := eng.ReverseSwap(input.SwapID); err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, ReverseOutput{SwapID: input.SwapID, Error: err.Error()}, nil
	}

	out := ReverseOutput{SwapID: input.SwapID, Status: string(model.SwapReversed)}
	if src != nil && tgt != nil {
		rs, rt := fromCharacter(src), fromCharacter(tgt)
		out.Source, out.Target = &rs, &rt
	}
	return nil, out, nil
}

// Input errors from the orchestrator surface as tool errors; the SDK wraps
// them in an IsError result.
func (s *Server) handlePreview(ctx context.Context, req *mcpsdk.CallToolRequest, input PairInput) (*mcpsdk.CallToolResult, reciprocal.Preview, error) {
	p, err := s.core.Orchestrator().Preview(input.CharA, input.CharB, input.Garments)
	if err != nil {
		return nil, reciprocal.Preview{}, err
	}
	return nil, p, nil
}

func (s *Server) handleReciprocal(ctx context.Context, req *mcpsdk.CallToolRequest, input PairInput) (*mcpsdk.CallToolResult, reciprocal.Result, error) {
	res, err := s.core.Orchestrator().Swap(input.CharA, input.CharB, input.Garments)
	if err != nil {
		return nil, reciprocal.Result{}, err
	}
	if !res.Success {
		return &mcpsdk.CallToolResult{IsError: true}, res, nil
	}
	return nil, res, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, core.Status, error) {
	st := s.core.Status(ctx)
	if st.Settings == nil {
		st.Settings = map[string]any{}
	}
	return nil, st, nil
}

func (s *Server) handleHistory(ctx context.Context, req *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	var history []model.SwapRecord
	if input.Stored {
		stored, err := s.core.StoredHistory(ctx)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		history = stored
	} else {
		history = s.core.Engine().History()
	}

	out := HistoryOutput{Swaps: []Record{}}
	for _, rec := range history {
		if input.Character != "" && rec.Source != input.Character && rec.Target != input.Character {
			continue
		}
		out.Swaps = append(out.Swaps, toRecord(rec))
	}
	if input.Limit > 0 && len(out.Swaps) > input.Limit {
		out.Swaps = out.Swaps[len(out.Swaps)-input.Limit:]
	}
	return nil, out, nil
}

// --- Helpers ---

func fromCharacter(c *model.Character) CharacterInput {
	return CharacterInput{ID: c.ID, Name: c.Name, Body: c.Body}
}

func toRecord(rec model.SwapRecord) Record {
	r := Record{
		ID:           rec.ID,
		Source:       rec.Source,
		Target:       rec.Target,
		Garment:      rec.Garment.ID,
		GarmentType:  string(rec.Garment.Type),
		Zones:        rec.Zones,
		SkippedZones: rec.SkippedZones,
		Timestamp:    rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Status:       string(rec.Status),
	}
	if rec.ReversedAt != nil {
		r.ReversedAt = rec.ReversedAt.UTC().Format(time.RFC3339Nano)
	}
	return r
}
