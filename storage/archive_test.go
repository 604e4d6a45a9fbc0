package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *mockObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader) (*StoredObject, error) {
	m.body, _ = io.ReadAll(body)
	args := m.Called(key, contentType)
	obj, _ := args.Get(0).(*StoredObject)
	return obj, args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(key).Error(0)
}

func (m *mockObjectStore) URL(key string) string {
	return m.Called(key).String(0)
}

func TestArchiveFinal(t *testing.T) {
	up := &mockObjectStore{}
	up.On("Put", "tournaments/t1/final.json", "application/json").
		Return(&StoredObject{Key: "tournaments/t1/final.json", URL: "https://cdn/tournaments/t1/final.json"}, nil)

	loc, err := NewSnapshotArchive(up).ArchiveFinal(context.Background(), "t1", map[string]string{"champion": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/tournaments/t1/final.json", loc)

	var got map[string]string
	require.NoError(t, json.Unmarshal(up.body, &got))
	assert.Equal(t, "Ann", got["champion"])
	up.AssertExpectations(t)
}

func TestArchiveFinal_UploadError(t *testing.T) {
	up := &mockObjectStore{}
	up.On("Put", "tournaments/t1/final.json", "application/json").Return(nil, errors.New("bucket gone"))
	_, err := NewSnapshotArchive(up).ArchiveFinal(context.Background(), "t1", struct{}{})
	assert.EqualError(t, err, "bucket gone")
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/tournaments/t1/final.json", publicURL("https://cdn.example.com", "tournaments/t1/final.json"))
	assert.Equal(t, "https://cdn.example.com/base/a.json", publicURL("https://cdn.example.com/base/", "/a.json"))
	assert.Equal(t, "", publicURL("", "a.json"))
}

func TestDiscard(t *testing.T) {
	up := &mockObjectStore{}
	up.On("Delete", "tournaments/t1/final.json").Return(nil).Once()
	require.NoError(t, NewSnapshotArchive(up).Discard(context.Background(), "t1"))

	up.On("Delete", "tournaments/t2/final.json").Return(errors.New("denied"))
	err := NewSnapshotArchive(up).Discard(context.Background(), "t2")
	assert.ErrorContains(t, err, "denied")
	up.AssertExpectations(t)
}

func TestNewR2ObjectStore(t *testing.T) {
	_, err := NewR2ObjectStore(context.Background(), BucketConfig{AccountID: "acct", BucketName: "b"})
	assert.Error(t, err, "keys are required")

	_, err = NewR2ObjectStore(context.Background(), BucketConfig{AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"})
	assert.Error(t, err, "an account or endpoint is required")

	store, err := NewR2ObjectStore(context.Background(), BucketConfig{
		AccessKeyID:     "k",
		SecretAccessKey: "s",
		BucketName:      "b",
		Endpoint:        "http://localhost:9000",
		PublicBaseURL:   "https://cdn.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tournaments/t1/final.json", store.URL(FinalSnapshotKey("t1")))
}
