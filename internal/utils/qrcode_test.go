package utils

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGenerateQRCodeProducesPNG(t *testing.T) {
	png, err := GenerateQRCode("https://demo.myshopify.com/discount/SAVE25AB")
	require.NoError(t, err)
	require.Greater(t, len(png), 4)
	assert.Equal(t, pngMagic, png[:4])
}

func TestGenerateQRCodeBase64IsDataURI(t *testing.T) {
	dataURI, err := GenerateQRCodeBase64("https://demo.myshopify.com/discount/SAVE25AB")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(dataURI, prefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, prefix))
	require.NoError(t, err)
	assert.Equal(t, pngMagic, png[:4])
}
