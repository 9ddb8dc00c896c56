// Package models contains data structures used across handlers
package models

// DefaultRegion is applied to profiles that do not name one
const DefaultRegion = "us-east-1"

// ConnectionProfile is a saved set of credentials for an S3-compatible endpoint
type ConnectionProfile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	ForcePathStyle  bool   `json:"forcePathStyle"`
}

// ViewState is the remembered browsing position of a profile
type ViewState struct {
	Bucket           string `json:"bucket"`
	Prefix           string `json:"prefix"`
	ManualBucketName string `json:"manualBucketName"`
}

// ViewPatch is a partial ViewState. Nil fields are left untouched on merge.
type ViewPatch struct {
	Bucket           *string `json:"bucket,omitempty"`
	Prefix           *string `json:"prefix,omitempty"`
	ManualBucketName *string `json:"manualBucketName,omitempty"`
}

// Apply merges the patch into v and returns the result
func (p ViewPatch) Apply(v ViewState) ViewState {
	if p.Bucket != nil {
		v.Bucket = *p.Bucket
	}
	if p.Prefix != nil {
		v.Prefix = *p.Prefix
	}
	if p.ManualBucketName != nil {
		v.ManualBucketName = *p.ManualBucketName
	}
	return v
}

// Bucket is a bucket entry as returned by listBuckets
type Bucket struct {
	Name         string  `json:"name"`
	CreationDate *string `json:"creationDate"`
}

// ObjectFile is a file entry of a listing page
type ObjectFile struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified"`
	ETag         *string `json:"eTag"`
	StorageClass *string `json:"storageClass"`
}

// ListingPage is one page of a delimiter listing
type ListingPage struct {
	Bucket                string       `json:"bucket"`
	Prefix                string       `json:"prefix"`
	Folders               []string     `json:"folders"`
	Files                 []ObjectFile `json:"files"`
	IsTruncated           bool         `json:"isTruncated"`
	NextContinuationToken *string      `json:"nextContinuationToken"`
}

// Cursor tracks the pagination position of the displayed page
type Cursor struct {
	Token          *string `json:"token"`
	IsContinuation bool    `json:"isContinuation"`
}

// ConnectionResult is returned by testConnection
type ConnectionResult struct {
	Connected          bool   `json:"connected"`
	LimitedPermissions bool   `json:"limitedPermissions,omitempty"`
	Message            string `json:"message"`
}

// FolderInfo represents a folder (common prefix)
type FolderInfo struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// FileInfo is a file entry with display metadata
type FileInfo struct {
	ObjectFile
	Name          string `json:"name"`
	FormattedSize string `json:"formattedSize"`
}

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
