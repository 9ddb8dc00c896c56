package navigator

import (
	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/utils"
)

// Snapshot is a render-ready view of a State
type Snapshot struct {
	Opened                bool                `json:"opened"`
	Bucket                string              `json:"bucket"`
	Prefix                string              `json:"prefix"`
	ParentPrefix          string              `json:"parentPrefix"`
	ManualBucketName      string              `json:"manualBucketName"`
	Breadcrumbs           []models.Breadcrumb `json:"breadcrumbs"`
	Folders               []models.FolderInfo `json:"folders"`
	Files                 []models.FileInfo   `json:"files"`
	IsTruncated           bool                `json:"isTruncated"`
	NextContinuationToken *string             `json:"nextContinuationToken"`
	IsContinuation        bool                `json:"isContinuation"`
	CanLoadNext           bool                `json:"canLoadNext"`
	CanLoadFirst          bool                `json:"canLoadFirst"`
}

// Snapshot derives breadcrumbs, display names and pagination flags from s.
// The first breadcrumb is the bucket root.
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		Opened:           s.Opened(),
		Bucket:           s.Bucket,
		Prefix:           s.Prefix,
		ParentPrefix:     ParentPrefix(s.Prefix),
		ManualBucketName: s.ManualBucketName,
		Folders:          []models.FolderInfo{},
		Files:            []models.FileInfo{},
	}
	if !s.Opened() {
		snap.Breadcrumbs = []models.Breadcrumb{}
		return snap
	}

	snap.Breadcrumbs = append([]models.Breadcrumb{{Name: s.Bucket, Path: ""}}, Breadcrumbs(s.Prefix)...)

	for _, folder := range s.Page.Folders {
		snap.Folders = append(snap.Folders, models.FolderInfo{
			Name:   FolderDisplayName(folder, s.Prefix),
			Prefix: folder,
		})
	}
	for _, file := range s.Page.Files {
		snap.Files = append(snap.Files, models.FileInfo{
			ObjectFile:    file,
			Name:          FileDisplayName(file.Key, s.Prefix),
			FormattedSize: utils.FormatFileSize(file.Size),
		})
	}

	snap.IsTruncated = s.Page.IsTruncated
	snap.NextContinuationToken = s.Cursor.Token
	snap.IsContinuation = s.Cursor.IsContinuation
	snap.CanLoadNext = s.Cursor.Token != nil
	snap.CanLoadFirst = s.Cursor.IsContinuation
	return snap
}
