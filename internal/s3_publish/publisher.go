package s3_publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wonny/storagelimits/internal/calendar"
	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/metrics"
	"github.com/wonny/storagelimits/internal/s2_export"
	"github.com/wonny/storagelimits/pkg/logger"
	"github.com/wonny/storagelimits/pkg/objectstore"
)

// Config holds the publisher settings
type Config struct {
	Sender string // document sender code
	Prefix string // object key prefix
}

// Publisher renders batches and uploads them
// ⭐ SSOT: S3 문서 게시
type Publisher struct {
	resolver ReceiverResolver
	numberer DocumentNumberer
	store    objectstore.Store
	config   Config
	metrics  *metrics.Metrics
	logger   *logger.Logger

	now func() time.Time
}

func NewPublisher(
	resolver ReceiverResolver,
	numberer DocumentNumberer,
	store objectstore.Store,
	cfg Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *Publisher {
	return &Publisher{
		resolver: resolver,
		numberer: numberer,
		store:    store,
		config:   cfg,
		metrics:  m,
		logger:   log.WithComponent("publisher"),
		now:      time.Now,
	}
}

// Publish renders one document per format and uploads it.
// All formats share the receiver, contract and document number. A failing format
// does not stop the others; the returned error joins every format failure.
// In dry-run nothing is uploaded and no sequence number is consumed.
func (p *Publisher) Publish(ctx context.Context, batch contracts.Batch, formats []contracts.Format, dryRun bool) ([]contracts.Publication, error) {
	if len(batch.Limits) == 0 {
		return nil, s2_export.ErrEmptyBatch
	}

	now := p.now().UTC()

	receiver, err := p.resolver.Receiver(ctx, batch.ShipperID)
	if err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	label, err := p.resolver.ContractLabel(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("resolve contract label: %w", err)
	}

	docNumber := FormatDocNumber(now, 0)
	if !dryRun {
		if docNumber, err = p.numberer.Next(ctx, now); err != nil {
			return nil, fmt.Errorf("document number: %w", err)
		}
	}

	doc := s2_export.Document{
		Sender:    p.config.Sender,
		Receiver:  receiver,
		Contract:  label + receiver,
		DocDate:   now,
		DocNumber: docNumber,
	}

	log := p.logger.WithFields(map[string]interface{}{
		"shipper":    batch.ShipperID,
		"receiver":   receiver,
		"doc_number": docNumber,
		"from":       batch.Period.From.Format(calendar.DateLayout),
		"to":         batch.Period.To.Format(calendar.DateLayout),
	})

	var (
		pubs = make([]contracts.Publication, 0, len(formats))
		errs []error
	)
	for _, format := range formats {
		pub, err := p.publishFormat(ctx, batch, doc, format, now, dryRun)
		if err != nil {
			log.WithError(err).WithField("format", format).Error("publish failed")
			p.metrics.ObservePublication(string(format), metrics.ResultError, 0)
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}

		log.WithFields(map[string]interface{}{
			"format":   format,
			"location": pub.Location,
			"bytes":    pub.Bytes,
			"dry_run":  dryRun,
		}).Info("document published")
		if !dryRun {
			p.metrics.ObservePublication(string(format), metrics.ResultSuccess, pub.Bytes)
		}
		pubs = append(pubs, pub)
	}

	return pubs, errors.Join(errs...)
}

func (p *Publisher) publishFormat(ctx context.Context, batch contracts.Batch, doc s2_export.Document, format contracts.Format, now time.Time, dryRun bool) (contracts.Publication, error) {
	body, err := s2_export.Render(format, doc, batch.Limits)
	if err != nil {
		return contracts.Publication{}, fmt.Errorf("render: %w", err)
	}

	key := p.config.Prefix + FileName(doc.Receiver, batch.Period, now, format)
	pub := contracts.Publication{
		Format:    format,
		Key:       key,
		Location:  p.store.Location(key),
		DocNumber: doc.DocNumber,
		Receiver:  doc.Receiver,
		Bytes:     len(body),
		DryRun:    dryRun,
	}
	if dryRun {
		return pub, nil
	}

	err = p.store.Put(ctx, objectstore.Object{
		Key:         key,
		Body:        body,
		ContentType: format.ContentType(),
		Metadata: map[string]string{
			"shipper":    strconv.Itoa(int(batch.ShipperID)),
			"receiver":   doc.Receiver,
			"contract":   doc.Contract,
			"doc-number": doc.DocNumber,
			"sender":     doc.Sender,
		},
	})
	if err != nil {
		return contracts.Publication{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return pub, nil
}
