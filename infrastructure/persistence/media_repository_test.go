package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"creator-hub/domain/model"
)

func TestMediaPublicationRepository_UpsertMedia_ReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewMediaPublicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO media_publications`)).
		WithArgs("camp-1", "tiktok", "creator-42", "media-9", sqlmock.AnyArg(), "processing", "https://cdn.example/v1.mp4", "hello", nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	publishID := "pub-1"
	media := &model.MediaPublication{
		CampaignID:      "camp-1",
		Platform:        "tiktok",
		CreatorID:       "creator-42",
		ExternalMediaID: "media-9",
		PublishID:       &publishID,
		Status:          model.PublishStatusProcessing,
		VideoURL:        "https://cdn.example/v1.mp4",
		Caption:         "hello",
	}
	err = repository.UpsertMedia(context.Background(), media)
	require.NoError(t, err)
	require.Equal(t, int64(11), media.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaPublicationRepository_ListMediaByCampaignAndPlatform(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewMediaPublicationRepository(db)

	now := time.Now().UTC()
	cols := []string{"id", "campaign_id", "platform", "creator_id", "external_media_id", "publish_id", "status", "video_url", "caption", "permalink", "thumbnail_url", "error_message", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM media_publications WHERE campaign_id=$1 AND platform=$2`)).
		WithArgs("camp-1", "instagram").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "camp-1", "instagram", "creator-1", "m-1", nil, "published", "https://cdn/v1.mp4", "a", "https://ig/p/1", nil, nil, now, now).
			AddRow(2, "camp-1", "instagram", "creator-2", "m-2", nil, "processing", "https://cdn/v2.mp4", "b", nil, nil, nil, now, now))

	list, err := repository.ListMediaByCampaignAndPlatform(context.Background(), "camp-1", "instagram")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "m-1", list[0].ExternalMediaID)
	require.NotNil(t, list[0].Permalink)
	require.Nil(t, list[1].Permalink)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaPublicationRepository_UpdateMediaStatus_GuardsTerminalRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewMediaPublicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE media_publications SET status=$1, error_message=$2, updated_at=$3 WHERE id=$4 AND status NOT IN ('published','failed')`)).
		WithArgs("published", nil, sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repository.UpdateMediaStatus(context.Background(), 11, model.PublishStatusPublished, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaPublicationRepository_SetMediaExternalID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewMediaPublicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE media_publications SET external_media_id=$1, updated_at=$2 WHERE id=$3`)).
		WithArgs("7312345678901234567", sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repository.SetMediaExternalID(context.Background(), 11, "7312345678901234567")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
