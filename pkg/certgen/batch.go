package certgen

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type EventSource interface {
	// GetEvent returns ErrEventNotFound when the event does not exist.
	GetEvent(ctx context.Context, eventID EventID) (*Event, error)
}

type ObjectStore interface {
	// Upload must not replace an existing object, it returns ErrObjectExists instead.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}

type CertificateStore interface {
	// FindByEmailAndEvent returns nil, nil when no certificate exists for the pair.
	FindByEmailAndEvent(ctx context.Context, email string, eventID EventID) (*CertificateRecord, error)
	Insert(ctx context.Context, record *CertificateRecord) (*CertificateRecord, error)
	Update(ctx context.Context, id string, record *CertificateRecord) (*CertificateRecord, error)
}

type Renderer interface {
	Render(templateBytes []byte, placement TextPlacement, name string, opts ...RenderOption) (*Document, error)
}

// Observer is notified once per participant, after its outcome is known.
type Observer interface {
	ObserveItem(result ItemResult, duration time.Duration)
}

type Options struct {
	// Number of participants processed at once. Values below 2 process the batch sequentially.
	Workers int
	// Zero means no per participant timeout.
	ItemTimeout       time.Duration
	MaxReportedErrors int
	// fmt pattern receiving the query escaped participant email, e.g.
	// "https://certs.example.com/?email=%s". Empty disables the QR stamp.
	QRURLPattern string
	Now          func() time.Time
}

type Dependencies struct {
	Events       EventSource
	Templates    TemplateRegistry
	Objects      ObjectStore
	Certificates CertificateStore
	Renderer     Renderer
	Logger       *zap.SugaredLogger
	// Optional, a validator with strNotEmpty registered is created when nil.
	Validate *validator.Validate
	Observer Observer
}

type BatchGenerator struct {
	events       EventSource
	templates    TemplateRegistry
	objects      ObjectStore
	certificates CertificateStore
	renderer     Renderer
	logger       *zap.SugaredLogger
	validate     *validator.Validate
	observer     Observer
	opts         Options
}

func NewBatchGenerator(deps Dependencies, opts Options) *BatchGenerator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	validate := deps.Validate
	if validate == nil {
		validate = newParticipantValidator()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxReportedErrors <= 0 {
		opts.MaxReportedErrors = DefaultMaxReportedErrors
	}

	return &BatchGenerator{
		events:       deps.Events,
		templates:    deps.Templates,
		objects:      deps.Objects,
		certificates: deps.Certificates,
		renderer:     deps.Renderer,
		logger:       logger,
		validate:     validate,
		observer:     deps.Observer,
		opts:         opts,
	}
}

func newParticipantValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strNotEmpty", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		return field.Kind() == reflect.String && strings.TrimSpace(field.String()) != ""
	})
	return v
}

// Generate renders, stores and records a certificate for every participant of
// one event. Only ErrEventNotFound, ErrNoTemplates and lookup failures of the
// event or its templates are returned as errors; everything that goes wrong
// for a single participant ends up in the report.
func (bg *BatchGenerator) Generate(ctx context.Context, eventID EventID, participants []Participant) (*Report, error) {
	startTime := bg.opts.Now()

	event, err := bg.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	templates, err := bg.templates.GetTemplatesForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates for event %s: %w", eventID, err)
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	run := newBatchRun(event, templates)
	items := make([]ItemResult, len(participants))

	workers := bg.workerCount(len(participants))
	bg.logger.Infof("Generating %d certificates for event %s with %d worker(s)", len(participants), eventID, workers)

	if workers <= 1 {
		for i, p := range participants {
			items[i] = bg.processItem(ctx, run, i, p)
		}
	} else {
		jobs := make(chan int, len(participants))
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Each job owns its slot of items, no further locking needed.
				for i := range jobs {
					items[i] = bg.processItem(ctx, run, i, participants[i])
				}
			}()
		}
		for i := range participants {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	report := newReport(eventID, items, bg.opts.MaxReportedErrors)
	report.Duration = bg.opts.Now().Sub(startTime)

	bg.logger.Infof("Generated %d certificates for event %s, %d failed, took %s", report.Generated, eventID, report.Failed, report.Duration)
	return report, nil
}

func (bg *BatchGenerator) workerCount(jobCount int) int {
	return max(min(bg.opts.Workers, jobCount), 1)
}

func (bg *BatchGenerator) processItem(ctx context.Context, run *batchRun, index int, p Participant) (result ItemResult) {
	result = ItemResult{Index: index, Participant: p, Stage: StagePending}
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			result.fail(err, fmt.Sprintf("Error processing %s: %v", p.Identifier(), err))
		}

		if result.Err != nil {
			bg.logger.Debugf("Participant %d (%s) failed at stage %s: %v", index, p.Identifier(), result.Stage, result.Err)
		}

		if bg.observer != nil {
			bg.observer.ObserveItem(result, time.Since(startTime))
		}
	}()

	if err := bg.validate.Struct(p); err != nil {
		result.fail(fmt.Errorf("%w: %v", ErrValidation, err), fmt.Sprintf("Missing required fields for %s", p.Identifier()))
		return result
	}
	result.Stage = StageValidated

	tpl, err := run.templates.Lookup(p.Category)
	if err != nil {
		result.fail(err, fmt.Sprintf("No template found for category: %s (available: %s)",
			strings.TrimSpace(p.Category), strings.Join(run.templates.Categories(), ", ")))
		return result
	}
	result.Stage = StageTemplateResolved

	itemCtx := ctx
	if bg.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, bg.opts.ItemTimeout)
		defer cancel()
	}

	if err := bg.produce(itemCtx, run, tpl, p, &result); err != nil {
		result.fail(err, fmt.Sprintf("Error processing %s: %v", p.Identifier(), err))
	}

	return result
}

// produce runs render, upload and record for one participant, in that order.
func (bg *BatchGenerator) produce(ctx context.Context, run *batchRun, tpl Template, p Participant, result *ItemResult) error {
	templateBytes, err := run.templateImage(ctx, bg.objects, tpl)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var opts []RenderOption
	if bg.opts.QRURLPattern != "" {
		opts = append(opts, WithQRCode(fmt.Sprintf(bg.opts.QRURLPattern, url.QueryEscape(NormalizeEmail(p.Email)))))
	}

	doc, err := bg.renderer.Render(templateBytes, tpl.Placement, strings.TrimSpace(p.Name), opts...)
	if err != nil {
		return err
	}
	result.Stage = StageRendered

	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := CertificateObjectKey(run.event.ID, p.Category, p.Name, doc.Ext, bg.opts.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err := bg.objects.Upload(ctx, key, doc.Data, doc.ContentType); err != nil {
		return fmt.Errorf("%w: failed to upload %s: %w", ErrStorage, key, err)
	}
	result.ObjectKey = key
	result.CertificateURL = bg.objects.PublicURL(key)
	result.Stage = StageUploaded

	if err := ctx.Err(); err != nil {
		return err
	}

	record, err := bg.upsert(ctx, run, p, result.CertificateURL, key)
	if err != nil {
		return err
	}
	result.CertificateID = record.ID
	result.Stage = StageRecorded

	return nil
}

// upsert keeps at most one certificate per (email, event).
func (bg *BatchGenerator) upsert(ctx context.Context, run *batchRun, p Participant, certificateURL, key string) (*CertificateRecord, error) {
	email := NormalizeEmail(p.Email)

	unlock := run.lockKey(email)
	defer unlock()

	record := &CertificateRecord{
		Email:          email,
		Name:           strings.TrimSpace(p.Name),
		EventID:        run.event.ID,
		EventName:      run.event.Name,
		DateOfEvent:    run.event.Date,
		Category:       strings.TrimSpace(p.Category),
		Tags:           p.Tags,
		CertificateURL: certificateURL,
		ObjectKey:      key,
	}

	existing, err := bg.certificates.FindByEmailAndEvent(ctx, email, run.event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find certificate: %w", ErrPersistence, err)
	}

	if existing != nil {
		if record.Tags == nil {
			record.Tags = existing.Tags
		}

		updated, err := bg.certificates.Update(ctx, existing.ID, record)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to update certificate %s: %w", ErrPersistence, existing.ID, err)
		}
		return updated, nil
	}

	created, err := bg.certificates.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert certificate: %w", ErrPersistence, err)
	}
	return created, nil
}

// batchRun holds what one Generate call shares between participants: the
// event, the template lookup and the template images fetched on first use.
type batchRun struct {
	event     *Event
	templates *TemplateSet
	images    map[string]*templateImage

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// templateImage caches the bytes of a template after the first successful
// download. Failures are not cached so a timed out participant does not fail
// the ones after it.
type templateImage struct {
	mu   sync.Mutex
	data []byte
}

func newBatchRun(event *Event, templates []Template) *batchRun {
	run := &batchRun{
		event:     event,
		templates: NewTemplateSet(templates),
		images:    make(map[string]*templateImage, len(templates)),
		keyLocks:  make(map[string]*sync.Mutex),
	}
	for _, t := range templates {
		run.images[t.ImageKey] = &templateImage{}
	}
	return run
}

func (run *batchRun) templateImage(ctx context.Context, store ObjectStore, tpl Template) ([]byte, error) {
	img, ok := run.images[tpl.ImageKey]
	if !ok {
		return nil, fmt.Errorf("%w: template image %s is not part of this batch", ErrStorage, tpl.ImageKey)
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	if img.data != nil {
		return img.data, nil
	}

	data, err := store.Download(ctx, tpl.ImageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download template %s: %w", ErrStorage, tpl.ImageKey, err)
	}
	img.data = data

	return img.data, nil
}

func (run *batchRun) lockKey(key string) func() {
	run.mu.Lock()
	l, ok := run.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		run.keyLocks[key] = l
	}
	run.mu.Unlock()

	l.Lock()
	return l.Unlock
}
