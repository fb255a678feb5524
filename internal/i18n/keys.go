// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "server.internal_error"
	KeyRateLimited   = "server.rate_limited"

	// Data source
	KeySyncLoadFailed      = "sync.load_failed"
	KeySyncSubscribeFailed = "sync.subscribe_failed"
	KeySourceMock          = "source.mock"
	KeySourceRemote        = "source.remote"

	// Clubs
	KeyClubNotFound     = "club.not_found"
	KeyClubLoadFailed   = "club.load_failed"
	KeyClubCreateFailed = "club.create_failed"
	KeyClubUpdateFailed = "club.update_failed"
	KeyClubDeleteFailed = "club.delete_failed"

	// Members
	KeyMemberNotFound     = "member.not_found"
	KeyMemberAddFailed    = "member.add_failed"
	KeyMemberAvatarFailed = "member.avatar_failed"

	// Posts
	KeyActivityAddFailed     = "activity.add_failed"
	KeyRollingPaperAddFailed = "rolling_paper.add_failed"

	// Avatars
	KeyAvatarRateLimited  = "avatar.rate_limited"
	KeyAvatarInvalidImage = "avatar.invalid_image"
	KeyAvatarAuthFailed   = "avatar.auth_failed"
	KeyAvatarTooLarge     = "avatar.too_large"
	KeyAvatarFailed       = "avatar.failed"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"
	KeyValidationTooLong  = "validation.too_long"
	KeyValidationTooShort = "validation.too_short"
	KeyInvalidDataURL     = "validation.invalid_data_url"
)
