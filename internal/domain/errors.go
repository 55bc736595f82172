package domain

import "errors"

var (
	ErrNoAssets          = errors.New("no assets provided")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidOutput     = errors.New("invalid model output")
	ErrEmptyResponse     = errors.New("empty model response")
	ErrNoImage           = errors.New("no image in model response")
	ErrNoServerKey       = errors.New("no server-side api key configured")
	ErrStaleResult       = errors.New("analysis result is stale for the selected medium")
	ErrNoResult          = errors.New("no analysis result")
	ErrUnknownMedium     = errors.New("unknown medium")
	ErrNoVariants        = errors.New("no preview variants configured")
	ErrAssetNotFound     = errors.New("asset not found")
)
