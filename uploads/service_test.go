package uploads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
)

type fakePresigner struct {
	lastBucket      string
	lastKey         string
	lastContentType string
	lastExpiry      time.Duration
	err             error
}

func (f *fakePresigner) PresignPut(_ context.Context, bucket, key, contentType string, expiry time.Duration) (string, error) {
	f.lastBucket = bucket
	f.lastKey = key
	f.lastContentType = contentType
	f.lastExpiry = expiry
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example.com/" + key, nil
}

func TestGenerateUploadURL(t *testing.T) {
	fake := &fakePresigner{}
	svc := NewService(fake, "shop-images", zap.NewNop())

	result, err := svc.GenerateUploadURL(context.Background(), Input{
		FileName: "sneaker.jpg",
		FileType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^products/\d+-[0-9a-f]{8}\.jpg$`, result.Key)
	assert.Equal(t, "https://signed.example.com/"+result.Key, result.UploadURL)
	assert.Equal(t, "https://shop-images.s3.amazonaws.com/"+result.Key, result.PublicURL)
	assert.Equal(t, 300, result.ExpiresIn)

	assert.Equal(t, "shop-images", fake.lastBucket)
	assert.Equal(t, "image/jpeg", fake.lastContentType)
	assert.Equal(t, 300*time.Second, fake.lastExpiry)
}

func TestGenerateUploadURLExtensionFollowsContentType(t *testing.T) {
	fake := &fakePresigner{}
	svc := NewService(fake, "shop-images", zap.NewNop())

	result, err := svc.GenerateUploadURL(context.Background(), Input{
		FileName: "photo.jpeg",
		FileType: "image/webp",
	})
	require.NoError(t, err)
	assert.Regexp(t, `\.webp$`, result.Key)
}

func TestGenerateUploadURLValidation(t *testing.T) {
	svc := NewService(&fakePresigner{}, "shop-images", zap.NewNop())
	ctx := context.Background()

	_, err := svc.GenerateUploadURL(ctx, Input{FileType: "image/png"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.GenerateUploadURL(ctx, Input{FileName: "a.pdf", FileType: "application/pdf"})
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields()["allowedTypes"])
}

func TestGenerateUploadURLPresignFailure(t *testing.T) {
	svc := NewService(&fakePresigner{err: errors.New("aws down")}, "shop-images", zap.NewNop())

	_, err := svc.GenerateUploadURL(context.Background(), Input{
		FileName: "a.png",
		FileType: "image/png",
	})
	var ierr *apperr.InternalError
	require.ErrorAs(t, err, &ierr)
}
