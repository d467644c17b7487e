package callclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"

	// Kamera ve mikrofon driver'ları yan etkiyle register olur.
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
)

// Medya edinme hataları. Engine bunları ayırt ederek kullanıcıya anlamlı
// mesaj gösterir; hepsi çağrının kurulamaması anlamına gelir.
var (
	ErrMediaPermission = errors.New("media permission denied")
	ErrNoDevice        = errors.New("no capture device found")
	ErrDeviceBusy      = errors.New("capture device is busy")
)

// MediaSession, açılmış kamera/mikrofon oturumu. Tracks peer'a eklenir; API,
// bu track'lerin codec'leriyle hazırlanmış webrtc.API'dir.
type MediaSession struct {
	Tracks []webrtc.TrackLocal
	API    *webrtc.API

	stream mediadevices.MediaStream
}

// Close, tüm capture track'lerini durdurur ve cihazları serbest bırakır.
func (s *MediaSession) Close() {
	if s == nil || s.stream == nil {
		return
	}
	for _, track := range s.stream.GetTracks() {
		if err := track.Close(); err != nil {
			log.Printf("[media] track close failed: %v", err)
		}
	}
	s.stream = nil
}

// MediaGateway, getUserMedia soyutlaması. Testler sahte bir gateway geçer;
// gerçek implementasyon pion/mediadevices kullanır.
type MediaGateway interface {
	// Acquire, mikrofonu (ve video true ise kamerayı) açar.
	Acquire(ctx context.Context, video bool) (*MediaSession, error)
}

type deviceGateway struct{}

// NewDeviceGateway, gerçek cihazları kullanan MediaGateway döner.
func NewDeviceGateway() MediaGateway {
	return deviceGateway{}
}

func (deviceGateway) Acquire(ctx context.Context, video bool) (*MediaSession, error) {
	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("opus params failed: %w", err)
	}

	selectorOpts := []mediadevices.CodecSelectorOption{
		mediadevices.WithAudioEncoders(&opusParams),
	}
	if video {
		vp8Params, err := vpx.NewVP8Params()
		if err != nil {
			return nil, fmt.Errorf("vp8 params failed: %w", err)
		}
		vp8Params.BitRate = 1_000_000
		selectorOpts = append(selectorOpts, mediadevices.WithVideoEncoders(&vp8Params))
	}
	selector := mediadevices.NewCodecSelector(selectorOpts...)

	constraints := mediadevices.MediaStreamConstraints{
		Audio: func(c *mediadevices.MediaTrackConstraints) {},
		Codec: selector,
	}
	if video {
		constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
			c.Width = prop.Int(1280)
			c.Height = prop.Int(720)
			c.FrameRate = prop.Float(30)
		}
	}

	stream, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		return nil, classifyMediaError(err)
	}

	mediaEngine := webrtc.MediaEngine{}
	selector.Populate(&mediaEngine)

	tracks := make([]webrtc.TrackLocal, 0, 2)
	for _, track := range stream.GetTracks() {
		tracks = append(tracks, track)
	}

	return &MediaSession{
		Tracks: tracks,
		API:    webrtc.NewAPI(webrtc.WithMediaEngine(&mediaEngine)),
		stream: stream,
	}, nil
}

// classifyMediaError, driver hatasını sentinel'lere map'ler. Driver'lar tip
// export etmediği için mesaj üzerinden ayrıştırılır.
func classifyMediaError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"):
		return fmt.Errorf("%w: %v", ErrMediaPermission, err)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no device"),
		strings.Contains(msg, "failed to find"):
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
	default:
		return fmt.Errorf("media acquire failed: %w", err)
	}
}
