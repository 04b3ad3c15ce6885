package magick

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOperationPending a second operation was executed before the pending result was taken
	ErrOperationPending = errors.New("magick: only one operation can be executed per mutator instance")
	// ErrNoResult no operation was executed on the mutator
	ErrNoResult = errors.New("magick: mutator has no result")
	// ErrDuplicateImage image reference already in the collection
	ErrDuplicateImage = errors.New("magick: Not allowed to add the same image to the collection.")
	// ErrDisposed image handle already released
	ErrDisposed = errors.New("magick: image is disposed")
	// ErrEmptyCollection operation requires at least one image
	ErrEmptyCollection = errors.New("magick: operation requires at least one image")
)

// Severity engine exception severity
type Severity int

// Severity values as reported by the engine.
// Values below ErrorSeverity are warnings.
const (
	UndefinedSeverity              Severity = 0
	WarningSeverity                Severity = 300
	ResourceLimitWarning           Severity = 300
	TypeWarning                    Severity = 305
	OptionWarning                  Severity = 310
	DelegateWarning                Severity = 315
	MissingDelegateWarning         Severity = 320
	CorruptImageWarning            Severity = 325
	FileOpenWarning                Severity = 330
	BlobWarning                    Severity = 335
	StreamWarning                  Severity = 340
	CacheWarning                   Severity = 345
	CoderWarning                   Severity = 350
	FilterWarning                  Severity = 352
	ModuleWarning                  Severity = 355
	DrawWarning                    Severity = 360
	ImageWarning                   Severity = 365
	WandWarning                    Severity = 370
	RandomWarning                  Severity = 375
	XServerWarning                 Severity = 380
	MonitorWarning                 Severity = 385
	RegistryWarning                Severity = 390
	ConfigureWarning               Severity = 395
	PolicyWarning                  Severity = 399
	ErrorSeverity                  Severity = 400
	ResourceLimitError             Severity = 400
	TypeError                      Severity = 405
	OptionError                    Severity = 410
	DelegateError                  Severity = 415
	MissingDelegateError           Severity = 420
	CorruptImageError              Severity = 425
	FileOpenError                  Severity = 430
	BlobError                      Severity = 435
	StreamError                    Severity = 440
	CacheError                     Severity = 445
	CoderError                     Severity = 450
	FilterError                    Severity = 452
	ModuleError                    Severity = 455
	DrawError                      Severity = 460
	ImageError                     Severity = 465
	WandError                      Severity = 470
	RandomError                    Severity = 475
	XServerError                   Severity = 480
	MonitorError                   Severity = 485
	RegistryError                  Severity = 490
	ConfigureError                 Severity = 495
	PolicyError                    Severity = 499
	FatalErrorSeverity             Severity = 700
	ResourceLimitFatalError        Severity = 700
	TypeFatalError                 Severity = 705
	OptionFatalError               Severity = 710
	DelegateFatalError             Severity = 715
	MissingDelegateFatalError      Severity = 720
	CorruptImageFatalError         Severity = 725
	FileOpenFatalError             Severity = 730
	BlobFatalError                 Severity = 735
	StreamFatalError               Severity = 740
	CacheFatalError                Severity = 745
	CoderFatalError                Severity = 750
	FilterFatalError               Severity = 752
	ModuleFatalError               Severity = 755
	DrawFatalError                 Severity = 760
	ImageFatalError                Severity = 765
	WandFatalError                 Severity = 770
	RandomFatalError               Severity = 775
	XServerFatalError              Severity = 780
	MonitorFatalError              Severity = 785
	RegistryFatalError             Severity = 790
	ConfigureFatalError            Severity = 795
	PolicyFatalError               Severity = 799
)

var severityCategories = map[Severity]string{
	ResourceLimitWarning:   "ResourceLimit",
	TypeWarning:            "Type",
	OptionWarning:          "Option",
	DelegateWarning:        "Delegate",
	MissingDelegateWarning: "MissingDelegate",
	CorruptImageWarning:    "CorruptImage",
	FileOpenWarning:        "FileOpen",
	BlobWarning:            "Blob",
	StreamWarning:          "Stream",
	CacheWarning:           "Cache",
	CoderWarning:           "Coder",
	FilterWarning:          "Filter",
	ModuleWarning:          "Module",
	DrawWarning:            "Draw",
	ImageWarning:           "Image",
	WandWarning:            "Wand",
	RandomWarning:          "Random",
	XServerWarning:         "XServer",
	MonitorWarning:         "Monitor",
	RegistryWarning:        "Registry",
	ConfigureWarning:       "Configure",
	PolicyWarning:          "Policy",
}

// IsWarning indicates a non fatal severity
func (s Severity) IsWarning() bool {
	return s >= WarningSeverity && s < ErrorSeverity
}

// String e.g. CorruptImageError
func (s Severity) String() string {
	var level string
	var base Severity
	switch {
	case s >= FatalErrorSeverity:
		level, base = "FatalError", s-FatalErrorSeverity+WarningSeverity
	case s >= ErrorSeverity:
		level, base = "Error", s-ErrorSeverity+WarningSeverity
	case s >= WarningSeverity:
		level, base = "Warning", s
	default:
		return "Undefined"
	}
	if category, ok := severityCategories[base]; ok {
		return category + level
	}
	return level
}

// Exception engine reported failure or warning
type Exception struct {
	Severity    Severity
	Message     string
	Description string
	Related     []*Exception
}

// NewException creates an engine exception
func NewException(severity Severity, message, description string) *Exception {
	return &Exception{Severity: severity, Message: message, Description: description}
}

// Error implements error
func (e *Exception) Error() string {
	if e.Description == "" {
		return e.Message
	}
	return e.Message + " (" + e.Description + ")"
}

// IsWarning indicates the exception does not abort the operation
func (e *Exception) IsWarning() bool {
	return e.Severity.IsWarning()
}

// Unwrap exposes related exceptions to errors.Is and errors.As
func (e *Exception) Unwrap() []error {
	if len(e.Related) == 0 {
		return nil
	}
	errs := make([]error, len(e.Related))
	for i, r := range e.Related {
		errs[i] = r
	}
	return errs
}

// IsException reports whether err or any error in its tree, related
// exceptions included, is an engine exception of the given severity
func IsException(err error, severity Severity) bool {
	if e, ok := err.(*Exception); ok {
		if e == nil {
			return false
		}
		if e.Severity == severity {
			return true
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return IsException(u.Unwrap(), severity)
	case interface{ Unwrap() []error }:
		for _, err := range u.Unwrap() {
			if IsException(err, severity) {
				return true
			}
		}
	}
	return false
}

// ArgumentError precondition violation detected before the engine is called
type ArgumentError struct {
	Param   string
	Message string
}

// Error implements error
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("magick: invalid argument %s: %s", e.Param, e.Message)
}

func argError(param, format string, args ...any) error {
	return &ArgumentError{Param: param, Message: fmt.Sprintf(format, args...)}
}

func checkNotNegative(param string, value float64) error {
	if value < 0 {
		return argError(param, "value should not be negative")
	}
	return nil
}

func checkNotEmpty(param, value string) error {
	if strings.TrimSpace(value) == "" {
		return argError(param, "value cannot be empty")
	}
	return nil
}

func checkImage(param string, img *Image) error {
	if img == nil {
		return argError(param, "value cannot be nil")
	}
	if img.isClosed() {
		return fmt.Errorf("%s: %w", param, ErrDisposed)
	}
	return nil
}
