// internal/services/avatar_service.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/config"
	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/metrics"
)

// StyleImages are the bundled character style references.
var StyleImages = []string{
	"dylan-1747776730297.png",
	"dylan-1747776732343.png",
	"dylan-1747776734884.png",
	"dylan-1747776737337.png",
	"dylan-1747776739302.png",
	"dylan-1747776742048.png",
	"dylan-1747776746317.png",
	"dylan-1747776747931.png",
	"dylan-1747776750730.png",
	"dylan-1747776752903.png",
	"dylan-1747776755022.png",
	"dylan-1747776757803.png",
	"dylan-1747776760378.png",
	"dylan-1747776762628.png",
	"dylan-1747776764936.png",
	"dylan-1747776767139.png",
}

const editPrompt = `이 사진을 제공된 스타일 이미지와 유사한 캐릭터로 변환해주세요.
- 파란색 또는 노란색 계열의 귀여운 캐릭터 스타일로 만들어주세요
- 얼굴 형태와 머리 스타일은 원본 사진을 참고하세요
- 배경은 투명하거나 단색으로 만들어주세요
- 단순화된 귀여운 캐릭터 스타일로 변환해주세요
- 선명하고 깔끔한 외곽선을 사용해주세요`

const generatePrompt = `사람 얼굴을 귀여운 캐릭터로 변환해주세요:

스타일 특성:
1. 간결하고 귀여운 일러스트레이션 스타일로 표현
2. 파란색 및 노란색 계열 색상 사용 (메인 캐릭터 파렛트)
3. 깔끔한 외곽선과 단순화된 특징
4. 배경은 투명하거나 매우 간단한 단색으로 처리
5. 얼굴 비율을 귀엽게 변형하되 원본 인물의 특징 유지
6. 양식화된 표현을 사용하여 캐릭터 느낌 강조

사람의 얼굴형, 헤어스타일, 눈/코/입의 특징을 유지하면서도 귀여운 캐릭터로 변환해주세요.`

// UserMessageKey maps an avatar error to the i18n key shown to the user.
func UserMessageKey(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return i18n.KeyAvatarRateLimited
		case http.StatusBadRequest:
			return i18n.KeyAvatarInvalidImage
		case http.StatusUnauthorized:
			return i18n.KeyAvatarAuthFailed
		}
	}
	if errors.Is(err, ErrImageTooLarge) {
		return i18n.KeyAvatarTooLarge
	}
	return i18n.KeyAvatarFailed
}

// StyleResolver turns a style file name into a downloadable URL.
type StyleResolver interface {
	StyleImageURL(ctx context.Context, name string) string
}

// AvatarService turns a photo into a character avatar through the OpenAI
// Images API. The styled edit is tried first and plain generation second.
type AvatarService struct {
	cfg        config.OpenAIConfig
	styles     StyleResolver
	client     openai.Client
	httpClient *http.Client
	pickStyle  func() string
	log        *logrus.Entry
}

func NewAvatarService(cfg config.OpenAIConfig, styles StyleResolver) *AvatarService {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	return &AvatarService{
		cfg:        cfg,
		styles:     styles,
		client:     openai.NewClient(opts...),
		httpClient: httpClient,
		pickStyle: func() string {
			return StyleImages[rand.Intn(len(StyleImages))]
		},
		log: logrus.WithField("component", "avatar"),
	}
}

// Generate returns the avatar as an https URL or a PNG data URL.
func (s *AvatarService) Generate(ctx context.Context, photoDataURL string) (string, error) {
	photo, err := NormalizeToPNG(photoDataURL)
	if err != nil {
		return "", err
	}
	if s.cfg.APIKey == "" {
		return "", ErrAvatarDisabled
	}

	style := s.pickStyle()
	log := s.log.WithFields(logrus.Fields{"style": style, "photo_bytes": len(photo)})

	start := time.Now()
	result, err := s.editWithStyle(ctx, photo, style)
	metrics.RecordAvatarGeneration("edit", time.Since(start), err)
	if err == nil {
		log.Info("Avatar generated from style reference")
		return result, nil
	}
	log.WithError(err).Warn("Styled edit failed; falling back to plain generation")

	start = time.Now()
	result, err = s.generate(ctx)
	metrics.RecordAvatarGeneration("generate", time.Since(start), err)
	if err != nil {
		log.WithError(err).Error("Avatar generation failed")
		return "", err
	}

	log.Info("Avatar generated without style reference")
	return result, nil
}

func (s *AvatarService) editWithStyle(ctx context.Context, photo []byte, style string) (string, error) {
	styleImage, err := s.download(ctx, s.styles.StyleImageURL(ctx, style))
	if err != nil {
		return "", fmt.Errorf("failed to load style image: %w", err)
	}

	resp, err := s.client.Images.Edit(ctx, openai.ImageEditParams{
		Model:  openai.ImageModel(s.cfg.EditModel),
		Prompt: editPrompt,
		Image: openai.ImageEditParamsImageUnion{
			OfFileArray: []io.Reader{
				openai.File(bytes.NewReader(photo), "webcam-photo.png", "image/png"),
				openai.File(bytes.NewReader(styleImage), style, "image/png"),
			},
		},
		N:       openai.Int(1),
		Size:    openai.ImageEditParamsSize1024x1024,
		Quality: openai.ImageEditParamsQualityHigh,
	})
	if err != nil {
		return "", fmt.Errorf("image edit failed: %w", err)
	}
	return extractImage(resp)
}

func (s *AvatarService) generate(ctx context.Context) (string, error) {
	resp, err := s.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:          openai.ImageModel(s.cfg.GenerateModel),
		Prompt:         generatePrompt,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		Quality:        openai.ImageGenerateParamsQualityHD,
		Style:          openai.ImageGenerateParamsStyleVivid,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	return extractImage(resp)
}

// extractImage returns the first image as its URL or as a PNG data URL.
func extractImage(resp *openai.ImagesResponse) (string, error) {
	if resp == nil || len(resp.Data) == 0 {
		return "", ErrNoImageData
	}
	img := resp.Data[0]
	if img.URL != "" {
		return img.URL, nil
	}
	if img.B64JSON == "" {
		return "", ErrNoImageData
	}
	data, err := base64.StdEncoding.DecodeString(img.B64JSON)
	if err != nil || len(data) == 0 {
		return "", fmt.Errorf("%w: malformed b64_json", ErrNoImageData)
	}
	return EncodeDataURL("image/png", data), nil
}

// download fetches a style reference. References over MaxAvatarInputBytes
// are rejected rather than truncated.
func (s *AvatarService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAvatarInputBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAvatarInputBytes {
		return nil, fmt.Errorf("%w: style reference %s", ErrImageTooLarge, url)
	}
	return data, nil
}
