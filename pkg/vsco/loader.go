package vsco

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	vscoerrors "vscodl/pkg/errors"
	"vscodl/pkg/logger"
)

// Profile is an enumerated gallery: its images plus the session the
// loader established for it.
type Profile struct {
	Username string
	SiteID   string
	// Cursor is the listing cursor found in the preloaded state
	Cursor string
	Token  string
	// SessionID tags this profile's log lines
	SessionID string
	Images    Images

	client *Client
	logger logger.Logger
}

// LoadAll downloads every image of the profile; see the package-level LoadAll
func (p *Profile) LoadAll(ctx context.Context, concurrency int) error {
	return p.Images.LoadAll(ctx, concurrency, p.logger)
}

// Client returns the authorized client the profile's images download through
func (p *Profile) Client() *Client {
	return p.client
}

// Loader builds profiles from usernames
type Loader struct {
	client *Client
	logger logger.Logger
}

// NewLoader creates a loader that issues requests through client
func NewLoader(client *Client, log logger.Logger) *Loader {
	log = logger.OrDefault(log)
	if client == nil {
		client = NewClient(0, log)
	}
	return &Loader{client: client, logger: log}
}

// Profile fetches username's gallery page, reads the session from its
// preloaded state and enumerates every image by following the media
// listing cursor until the server stops returning a new one.
//
// A missing profile fails with an invalid_profile error, a gallery page
// without a readable state with malformed_page, and any unexpected HTTP
// status with a request error. No partial profile is returned on error.
func (l *Loader) Profile(ctx context.Context, username string) (*Profile, error) {
	username = SanitizeUsername(username)
	sessionID := uuid.NewString()
	log := l.logger.WithFields(map[string]interface{}{
		"username":   username,
		"session_id": sessionID,
	})

	galleryURL := GalleryURL(l.client.BaseURL(), username)
	resp, err := l.client.WithLogger(log).Get(ctx, galleryURL)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		log.Warn("profile not found")
		return nil, vscoerrors.New(vscoerrors.ErrorTypeInvalidProfile, resp.StatusCode, "no profile found with username %q", username)
	default:
		return nil, vscoerrors.New(vscoerrors.ErrorTypeRequest, resp.StatusCode, "GET %s returned status %d", galleryURL, resp.StatusCode)
	}

	state, err := extractPreloadedState(resp.Body)
	if err != nil {
		log.WithError(err).Warn("failed to read preloaded state")
		return nil, err
	}

	token, siteID, cursor, sites, err := state.session()
	if err != nil {
		log.WithError(err).Warn("preloaded state is incomplete")
		return nil, err
	}
	if sites > 1 {
		log.WarnWithFields("preloaded state lists several sites, using the first", map[string]interface{}{
			"site_id": siteID,
			"sites":   sites,
		})
	}

	log = log.WithField("site_id", siteID)
	session := l.client.WithBearerToken(token).WithLogger(log)

	media, err := paginate(ctx, session, siteID, cursor, log)
	if err != nil {
		return nil, err
	}

	images, err := buildImages(media, state.inlineImages(), session, log)
	if err != nil {
		return nil, err
	}

	log.InfoWithFields("profile loaded", map[string]interface{}{
		"images": len(images),
		"media":  len(media),
	})

	return &Profile{
		Username:  username,
		SiteID:    siteID,
		Cursor:    cursor,
		Token:     token,
		SessionID: sessionID,
		Images:    images,
		client:    session,
		logger:    log,
	}, nil
}

// paginate collects the media of every listing page, starting at cursor.
// It stops when a page has no next cursor, or returns the cursor it was
// requested with.
func paginate(ctx context.Context, c *Client, siteID, cursor string, log logger.Logger) ([]mediaEntry, error) {
	var media []mediaEntry

	for page := 1; ; page++ {
		var resp mediaPage
		if err := c.GetJSON(ctx, MediaProfileURL(c.BaseURL(), siteID, cursor), &resp); err != nil {
			return nil, err
		}
		media = append(media, resp.Media...)

		log.DebugWithFields("fetched media page", map[string]interface{}{
			"page":   page,
			"cursor": cursor,
			"count":  len(resp.Media),
			"total":  len(media),
		})

		if resp.NextCursor == nil || *resp.NextCursor == "" || *resp.NextCursor == cursor {
			return media, nil
		}
		cursor = *resp.NextCursor
	}
}

// buildImages turns listing entries, then preloaded entries, into image
// records. Preloaded entries repeat the newest listing entries; those
// whose id was already seen are dropped.
func buildImages(media []mediaEntry, inline []map[string]interface{}, c *Client, log logger.Logger) (Images, error) {
	images := make(Images, 0, len(media)+len(inline))
	seen := make(map[string]bool, len(media))

	for _, entry := range media {
		if entry.Image == nil {
			log.DebugWithFields("skipping media entry without image", map[string]interface{}{
				"type": entry.Type,
			})
			continue
		}
		meta, err := parseMediaImage(entry.Image)
		if err != nil {
			return nil, vscoerrors.New(vscoerrors.ErrorTypeParsing, http.StatusOK, "%v", err)
		}
		seen[meta.ID] = true
		images = append(images, NewImage(meta, c))
	}

	skipped := 0
	for _, raw := range inline {
		meta, err := parsePreloadImage(raw)
		if err != nil {
			return nil, vscoerrors.New(vscoerrors.ErrorTypeParsing, http.StatusOK, "%v", err)
		}
		if meta.ID != "" && seen[meta.ID] {
			skipped++
			continue
		}
		seen[meta.ID] = true
		images = append(images, NewImage(meta, c))
	}
	if skipped > 0 {
		log.DebugWithFields("dropped preloaded duplicates", map[string]interface{}{
			"skipped": skipped,
		})
	}

	return images, nil
}
