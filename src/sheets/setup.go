package sheets

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/jiaming2012/hedge-sheets/src/utils"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DriveUploader copies written workbooks into a Google Drive folder.
type DriveUploader struct {
	srv      *drive.Service
	folderID string
}

func setup(ctx context.Context, googleSecurityKeyJsonBase64 string) (*drive.Service, error) {
	// get bytes from base64 encoded google service accounts key
	credBytes, err := base64.StdEncoding.DecodeString(googleSecurityKeyJsonBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode googleSecurityKeyJsonBase64: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credBytes, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from json: %w", err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %v", err)
	}

	return driveService, nil
}

func NewDriveUploader(ctx context.Context, googleSecurityKeyJsonBase64 string, folderID string) (*DriveUploader, error) {
	srv, err := setup(ctx, googleSecurityKeyJsonBase64)
	if err != nil {
		return nil, err
	}

	return &DriveUploader{srv: srv, folderID: folderID}, nil
}

func NewDriveUploaderFromEnv(ctx context.Context, folderID string) (*DriveUploader, error) {
	googleSecurityKeyJsonBase64, err := utils.GetEnv("GOOGLE_SECURITY_KEY_JSON_BASE64")
	if err != nil {
		return nil, fmt.Errorf("GOOGLE_SECURITY_KEY_JSON_BASE64 not set: %v", err)
	}

	return NewDriveUploader(ctx, googleSecurityKeyJsonBase64, folderID)
}

// Upload stores the file at path in the folder and returns the Drive file id.
func (u *DriveUploader) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     filepath.Base(path),
		MimeType: xlsxMimeType,
	}
	if u.folderID != "" {
		meta.Parents = []string{u.folderID}
	}

	file, err := u.srv.Files.Create(meta).Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("Upload: failed to create %s: %w", meta.Name, err)
	}

	return file.Id, nil
}
