package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"VirtualTourist-App/internal/event"
)

var log = event.Log

type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient 認証情報ファイルがあればそれを使い、なければデフォルト認証で接続する。
// FIRESTORE_EMULATOR_HOSTが設定されている場合はエミュレータに接続される
func NewFirestoreClient(ctx context.Context, projectID string) (*FirestoreClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
	}

	var opts []option.ClientOption
	if emulator := os.Getenv("FIRESTORE_EMULATOR_HOST"); emulator != "" {
		log.Infof("🧪 Firestoreエミュレータを使用: %s", emulator)
	} else if credentialsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			log.Warnf("⚠️ Credentials file not found: %s, trying with default authentication", credentialsFile)
		} else {
			log.Infof("📄 Using credentials file: %s", credentialsFile)
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	log.Infof("✅ Firestore client initialized for project: %s", projectID)

	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}
