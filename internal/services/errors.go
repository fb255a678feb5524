// internal/services/errors.go
package services

import "errors"

var (
	ErrClubNotFound   = errors.New("club not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrImageTooLarge  = errors.New("image exceeds 4MB after PNG normalization")
	ErrInvalidDataURL = errors.New("invalid image data URL")
	ErrAvatarDisabled = errors.New("avatar generation is not configured")
	ErrNoImageData    = errors.New("image API response contained no image data")
)
