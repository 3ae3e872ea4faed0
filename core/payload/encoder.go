// Package payload turns archive bytes into printable text and back.
//
// Compressed payloads are zlib streams at best compression, base64 encoded
// with standard padding; uncompressed payloads are the base64 of the raw
// bytes. Both decode with nothing but the Python standard library.
package payload

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/zlib"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/models"
)

// Encode converts data to payload text according to encoding
func Encode(data []byte, encoding models.Encoding) (models.Payload, error) {
	switch encoding {
	case models.Compressed:
		compressed, err := compress(data)
		if err != nil {
			return models.Payload{}, err
		}
		return models.Payload{Encoding: encoding, Text: base64.StdEncoding.EncodeToString(compressed)}, nil
	case models.Uncompressed:
		return models.Payload{Encoding: encoding, Text: base64.StdEncoding.EncodeToString(data)}, nil
	default:
		return models.Payload{}, dasherr.Newf(dasherr.EncodingError, "", "unknown encoding %s", encoding)
	}
}

// Decode is the exact inverse of Encode
func Decode(p models.Payload) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Text)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "payload is not valid base64", err)
	}

	switch p.Encoding {
	case models.Compressed:
		return decompress(raw)
	case models.Uncompressed:
		return raw, nil
	default:
		return nil, dasherr.Newf(dasherr.EncodingError, "", "unknown encoding %s", p.Encoding)
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to create zlib writer", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to compress payload", err)
	}
	if err := zw.Close(); err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to flush compressed payload", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "payload is not a zlib stream", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to decompress payload", err)
	}
	return out, nil
}
