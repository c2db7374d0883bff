package extractor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/jitter"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ExtractMethod — полное имя метода сервиса детекции лиц.
const ExtractMethod = "/facedetect.v1.FaceExtractor/Extract"

const (
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 2 * time.Second
)

// FaceExtractor клиент внешнего сервиса детекции лиц.
type FaceExtractor struct {
	conn       grpc.ClientConnInterface
	timeout    time.Duration
	maxRetries int
	vectorSize int
	sem        chan struct{}
	logger     logger.Logger
}

func NewFaceExtractor(conn grpc.ClientConnInterface, cfg *cfg.ExtractorCfg, vectorSize int, logger logger.Logger) *FaceExtractor {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &FaceExtractor{
		conn:       conn,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		vectorSize: vectorSize,
		sem:        make(chan struct{}, maxConcurrent),
		logger:     logger,
	}
}

// Extract возвращает лица, найденные на изображении. Ноль лиц не является ошибкой.
// Любой сбой, включая истечение таймаута, оборачивается в e.ErrExtractionFailed.
func (f *FaceExtractor) Extract(ctx context.Context, image []byte) ([]domain.DetectedFace, error) {
	const op = "FaceExtractor.Extract"

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	select {
	case f.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrExtractionFailed, ctx.Err()))
	}
	defer func() { <-f.sem }()

	resp, err := f.invokeWithRetry(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrExtractionFailed, err))
	}

	faces, dropped := f.parseFaces(resp)
	if dropped > 0 {
		f.logger.Warnf("%s: dropped %d face(s) with malformed descriptors", op, dropped)
	}

	return faces, nil
}

// invokeWithRetry повторяет вызов при временных ошибках с экспоненциальной задержкой,
// не выходя за дедлайн ctx.
func (f *FaceExtractor) invokeWithRetry(ctx context.Context, image []byte) (*structpb.Struct, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		resp := &structpb.Struct{}
		err := f.conn.Invoke(ctx, ExtractMethod, wrapperspb.Bytes(image), resp)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == f.maxRetries {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)
		f.logger.Warnf("extraction failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// parseFaces разбирает ответ вида {faces:[{box:{x,y,width,height}, descriptor:[...]}]}.
// Лица с некорректным дескриптором отбрасываются.
func (f *FaceExtractor) parseFaces(resp *structpb.Struct) ([]domain.DetectedFace, int) {
	values := resp.GetFields()["faces"].GetListValue().GetValues()
	faces := make([]domain.DetectedFace, 0, len(values))
	dropped := 0

	for _, v := range values {
		face := v.GetStructValue()
		if face == nil {
			dropped++
			continue
		}

		vector, ok := parseDescriptor(face.GetFields()["descriptor"].GetListValue())
		if !ok || vector.Validate(f.vectorSize) != nil {
			dropped++
			continue
		}

		faces = append(faces, domain.DetectedFace{
			Box:    parseBox(face.GetFields()["box"].GetStructValue()),
			Vector: vector,
		})
	}

	return faces, dropped
}

func parseDescriptor(list *structpb.ListValue) (domain.Embedding, bool) {
	values := list.GetValues()
	if len(values) == 0 {
		return nil, false
	}

	vector := make(domain.Embedding, len(values))
	for i, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
			return nil, false
		}
		vector[i] = n.NumberValue
	}

	return vector, true
}

func parseBox(box *structpb.Struct) domain.Box {
	fields := box.GetFields()
	return domain.Box{
		X:      fields["x"].GetNumberValue(),
		Y:      fields["y"].GetNumberValue(),
		Width:  fields["width"].GetNumberValue(),
		Height: fields["height"].GetNumberValue(),
	}
}
