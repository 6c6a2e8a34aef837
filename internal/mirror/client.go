package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

// Watch connects to a mirror stream and calls fn with each decoded frame
// until ctx is done, the server closes the stream or fn returns an error.
// A clean close by the server returns nil.
func Watch(ctx context.Context, streamURL string, fn func(image.Image) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to mirror %s: %w", streamURL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("mirror stream ended: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to decode frame: %w", err)
		}
		if err := fn(img); err != nil {
			return err
		}
	}
}

// errStop ends Watch after the first frame
var errStop = errors.New("stop")

// Fetch returns the first frame pushed by a mirror stream
func Fetch(ctx context.Context, streamURL string) (image.Image, error) {
	var frame image.Image
	err := Watch(ctx, streamURL, func(img image.Image) error {
		frame = img
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("mirror %s closed before sending a frame", streamURL)
	}
	return frame, nil
}
