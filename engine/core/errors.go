package core

import (
	"errors"
	"fmt"
)

type ErrorKind uint8

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindDeviceInit
	ErrorKindSurface
	ErrorKindSwapchain
	ErrorKindAllocation
	ErrorKindMap
	ErrorKindImageCreation
	ErrorKindViewCreation
	ErrorKindShaderLoad
	ErrorKindPipelineBuild
	ErrorKindSceneImport
	ErrorKindFrameAcquire
	ErrorKindFrameSubmit
	ErrorKindPresent
	ErrorKindDeviceLost
)

var errorKindNames = [...]string{
	ErrorKindUnknown:       "unknown error",
	ErrorKindDeviceInit:    "device initialization error",
	ErrorKindSurface:       "surface error",
	ErrorKindSwapchain:     "swapchain error",
	ErrorKindAllocation:    "allocation error",
	ErrorKindMap:           "map error",
	ErrorKindImageCreation: "image creation error",
	ErrorKindViewCreation:  "view creation error",
	ErrorKindShaderLoad:    "shader load error",
	ErrorKindPipelineBuild: "pipeline build error",
	ErrorKindSceneImport:   "scene import error",
	ErrorKindFrameAcquire:  "frame acquire error",
	ErrorKindFrameSubmit:   "frame submit error",
	ErrorKindPresent:       "present error",
	ErrorKindDeviceLost:    "device lost",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return errorKindNames[ErrorKindUnknown]
}

// EngineError carries the failing operation and, when the device reported one,
// the result code name.
type EngineError struct {
	Kind ErrorKind
	Op   string
	Code string
	Err  error
}

func (e *EngineError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any *EngineError of the same kind, so the package sentinels can be
// used with errors.Is.
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, op string, err error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: err}
}

func NewResultError(kind ErrorKind, op string, code string) *EngineError {
	return &EngineError{Kind: kind, Op: op, Code: code}
}

// KindOf returns the kind of the first EngineError in the chain.
func KindOf(err error) ErrorKind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUnknown
}

var (
	ErrDeviceInit    = &EngineError{Kind: ErrorKindDeviceInit}
	ErrSurface       = &EngineError{Kind: ErrorKindSurface}
	ErrSwapchain     = &EngineError{Kind: ErrorKindSwapchain}
	ErrAllocation    = &EngineError{Kind: ErrorKindAllocation}
	ErrMap           = &EngineError{Kind: ErrorKindMap}
	ErrImageCreation = &EngineError{Kind: ErrorKindImageCreation}
	ErrViewCreation  = &EngineError{Kind: ErrorKindViewCreation}
	ErrShaderLoad    = &EngineError{Kind: ErrorKindShaderLoad}
	ErrPipelineBuild = &EngineError{Kind: ErrorKindPipelineBuild}
	ErrSceneImport   = &EngineError{Kind: ErrorKindSceneImport}
	ErrFrameAcquire  = &EngineError{Kind: ErrorKindFrameAcquire}
	ErrFrameSubmit   = &EngineError{Kind: ErrorKindFrameSubmit}
	ErrPresent       = &EngineError{Kind: ErrorKindPresent}
	ErrDeviceLost    = &EngineError{Kind: ErrorKindDeviceLost}
)

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrUnknown          = errors.New("unknown")
)
