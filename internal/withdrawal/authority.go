package withdrawal

import (
	"fmt"

	"gorm.io/gorm"

	"royaltypool/internal/models"
)

// LinkageValidator is the default publishing-authority check: it verifies
// the requester actually holds the relationship it claims. Platforms with
// a dedicated rights-management system plug their own implementation into
// moneyflow.AuthorityValidator instead.
type LinkageValidator struct{}

func (LinkageValidator) ValidatePublishingAuthority(db *gorm.DB, w *models.RoyaltyWithdrawal) (bool, string) {
	switch w.RequesterType {
	case models.RequesterArtist:
		if w.ArtistID == nil {
			return false, "no artist specified for artist withdrawal"
		}
		var artist models.Artist
		if err := db.First(&artist, *w.ArtistID).Error; err != nil {
			return false, fmt.Sprintf("artist %d not found", *w.ArtistID)
		}
		if !artist.SelfPublished && artist.PublisherID != nil {
			return false, fmt.Sprintf("artist %q is managed by a publisher; withdrawal must come from the publisher", artist.StageName)
		}
		return true, fmt.Sprintf("artist %q is self-published", artist.StageName)

	case models.RequesterPublisher:
		if w.PublisherID == nil {
			return false, "no publisher specified for publisher withdrawal"
		}
		var publisher models.PublisherProfile
		if err := db.First(&publisher, *w.PublisherID).Error; err != nil {
			return false, fmt.Sprintf("publisher %d not found", *w.PublisherID)
		}
		if w.ArtistID != nil {
			var artist models.Artist
			if err := db.First(&artist, *w.ArtistID).Error; err != nil {
				return false, fmt.Sprintf("artist %d not found", *w.ArtistID)
			}
			if artist.PublisherID == nil || *artist.PublisherID != publisher.ID {
				return false, fmt.Sprintf("publisher %q does not manage artist %q", publisher.CompanyName, artist.StageName)
			}
		}
		return true, fmt.Sprintf("publisher %q holds publishing authority", publisher.CompanyName)
	}

	return false, fmt.Sprintf("invalid requester type: %s", w.RequesterType)
}
