package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgVersionInfo   = "Version: %s\nBuilt: %s"
	MsgStartPrompt   = `
		Send me a product or lifestyle photo and I will write marketing copy for it.

		/language - set the output language
		/tone - choose the brand voice
		/platforms - choose social platforms
		/marketplace - set marketplace and category
		/info - add details about the product
		/settings - show current settings
		/history - show recent results
		/cancel - stop the current generation`
	MsgCancelled        = "Cancelled."
	MsgNothingToCancel  = "Nothing to cancel."
	MsgSendPhotoFirst   = "Send a photo first."
	MsgImageExpired     = "That photo has already been used. Send it again to generate more."
	MsgNotAnImage       = "That file does not look like an image."
	MsgImageTooLarge    = "The image is too large."
	MsgDownloadFailed   = "Could not download the photo, please try again."
	MsgChooseMode       = "What should I write for this photo?"
)

// =============================================================================
// Mode buttons
// =============================================================================

const (
	BtnSocial       = "📣 Social posts"
	BtnMarketplace  = "🛒 Marketplace listing"
	BtnAnalysisOnly = "🔍 Analysis only"
)

// =============================================================================
// Progress messages
// =============================================================================

const (
	MsgProgressAnalyzing   = "⏳ Analyzing the image..."
	MsgProgressSocial      = "✍️ Writing social posts..."
	MsgProgressMarketplace = "✍️ Writing the marketplace listing..."
	MsgProgressDone        = "✅ Done"
	MsgProgressFailed      = "❌ Failed"
)

// =============================================================================
// Generation errors
// =============================================================================

const (
	MsgInvalidOptions    = "Cannot generate with the current settings: %s"
	MsgRateLimited       = "The AI service is busy right now. Please try again in a minute."
	MsgUpstreamDown      = "The AI service is not responding. Please try again later."
	MsgRequestRejected   = "The AI service rejected the request. Try another photo."
	MsgAnalysisFailed    = "I could not make sense of this photo. Try another one."
	MsgGenerationFailed  = "I could not write the copy this time. Please try again."
	MsgMarketplaceNeeded = "Set the marketplace and category first, for example `/marketplace etsy Handmade jewelry`"
)

// =============================================================================
// Settings messages
// =============================================================================

const (
	MsgLanguageUsage       = "Usage: `/language <language>`, for example `/language fi` or `/language Spanish`"
	MsgLanguageSet         = "✅ Language set to *%s*"
	MsgToneChoose          = "Choose a tone:"
	MsgToneInvalid         = "Unknown tone. Available tones: %s"
	MsgToneSet             = "✅ Tone set to *%s*"
	MsgPlatformsUsage      = "Usage: `/platforms instagram, twitter, linkedin`\n\nAvailable: %s"
	MsgPlatformsInvalid    = "Invalid platforms: %s\n\nAvailable: %s"
	MsgPlatformsSet        = "✅ Platforms set to *%s*"
	MsgMarketplaceUsage    = "Usage: `/marketplace <platform> <category>`\n\nPlatforms: %s"
	MsgMarketplaceInvalid  = "Unknown marketplace. Available: %s"
	MsgMarketplaceSet      = "✅ Listings will be written for *%s* in category *%s*"
	MsgInfoSet             = "✅ I will use this for the next photo."
	MsgInfoCleared         = "Product details cleared."
	MsgInfoUsage           = "Usage: `/info <details about the product>`. Send `/info` alone to clear."
	MsgNotSet              = "not set"
	MsgSettingsFmt         = `
		*Settings*
		Language: %s
		Tone: %s
		Platforms: %s
		Marketplace: %s
		Category: %s
		Product details: %s`
)

// =============================================================================
// History messages
// =============================================================================

const (
	MsgHistoryEmpty    = "No saved results yet."
	MsgHistoryTitle    = "*Recent results:*\n"
	MsgHistoryNotFound = "That result no longer exists."
	MsgHistoryDeleted  = "🗑 Result deleted."
	BtnHistoryDelete   = "🗑 Delete"
)

// =============================================================================
// Result section titles
// =============================================================================

const (
	TitleAnalysis    = "🔍 Analysis"
	TitleSocial      = "📣 Social"
	TitleMarketplace = "🛒 Listing"
)

// =============================================================================
// Admin command messages
// =============================================================================

const (
	MsgAdminUsage           = "Usage:\n`/admin users add <user_id>`\n`/admin users remove <user_id>`\n`/admin users list`"
	MsgAdminUserAddUsage    = "Usage: `/admin users add <user_id>`"
	MsgAdminUserRemoveUsage = "Usage: `/admin users remove <user_id>`"
	MsgAdminUserInvalidID   = "Invalid user ID. Enter a number."
	MsgAdminUserAdded       = "✅ User `%d` added."
	MsgAdminUserRemoved     = "🗑 User `%d` removed."
	MsgAdminNoUsers         = "No allowed users."
	MsgAdminAllowedUsers    = "*Allowed users:*\n"
)
