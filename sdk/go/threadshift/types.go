package threadshift

import (
	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/core"
	"github.com/ppiankov/threadshift/internal/garment"
	"github.com/ppiankov/threadshift/internal/model"
	"github.com/ppiankov/threadshift/internal/reciprocal"
	"github.com/ppiankov/threadshift/internal/swap"
)

type (
	// BodyMap maps zone names to zone records.
	BodyMap = model.BodyMap
	// Character is a swap participant. Swaps mutate its Body in place.
	Character = model.Character
	// SwapRecord describes one swap.
	SwapRecord = model.SwapRecord
	// ValidationResult lists schema violations.
	ValidationResult = bodymap.Result
	// Preview summarizes a reciprocal swap without performing it.
	Preview = reciprocal.Preview
	// ReciprocalResult is the outcome of a reciprocal swap.
	ReciprocalResult = reciprocal.Result
	// Pair is one reciprocal batch entry.
	Pair = reciprocal.Pair
	// BatchResult is the outcome for one batch pair.
	BatchResult = reciprocal.BatchResult
	// Status reports engine state and stored settings.
	Status = core.Status
)

// Errors callers can match with errors.Is.
var (
	ErrSwapNotFound     = swap.ErrSwapNotFound
	ErrValidationFailed = swap.ErrValidationFailed
	ErrNoZones          = swap.ErrNoZones
	ErrInvalidCharacter = swap.ErrInvalidCharacter
	ErrMalformedRef     = garment.ErrMalformedRef
	ErrInvalidInput     = reciprocal.ErrInvalidInput
	ErrInvalidBodyMap   = reciprocal.ErrInvalidBodyMap
)
