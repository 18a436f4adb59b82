package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildGeminiContents(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4E, 0x47}
	system, contents, err := buildGeminiContents([]Message{
		SystemMessage("you are a copywriter"),
		SystemMessage("respond with json"),
		UserMessage(TextPart("language: Finnish"), ImagePart(EncodeDataURL(img, "image/png"), DetailHigh)),
	})
	require.NoError(t, err)

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "you are a copywriter\n\nrespond with json", system.Parts[0].Text)

	require.Len(t, contents, 1)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "language: Finnish", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, img, contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, "image/png", contents[0].Parts[1].InlineData.MIMEType)
}

func TestBuildGeminiContents_RejectsRemoteImages(t *testing.T) {
	_, _, err := buildGeminiContents([]Message{
		UserMessage(ImagePart("https://example.com/a.jpg", DetailHigh)),
	})
	assert.ErrorIs(t, err, ErrRequestRejected)
}

func TestBuildGeminiContents_RequiresUserTurn(t *testing.T) {
	_, _, err := buildGeminiContents([]Message{SystemMessage("only system")})
	assert.ErrorIs(t, err, ErrRequestRejected)
}

func TestDataURLRoundTrip(t *testing.T) {
	data := []byte("hello image")
	decoded, mimeType, err := DecodeDataURL(EncodeDataURL(data, "image/jpeg"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Equal(t, "image/jpeg", mimeType)

	_, _, err = DecodeDataURL("image/jpeg;base64,abc")
	assert.Error(t, err)
}
