package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/knetic/govaluate"
	"github.com/nvr-ai/go-bmp/images"
	"github.com/nvr-ai/go-bmp/images/kernels"
	"github.com/pkg/errors"
)

// Defaults for a bare "blur" spec.
const (
	DefaultBlurSigma  = 1.0
	DefaultBlurRadius = 5
)

// Transform is one stage of a pipeline. Apply reads src and returns a new
// buffer; it must not retain or modify src.
type Transform interface {
	Name() string
	Apply(src images.Buffer) (images.Buffer, error)
}

// Rotate turns the image a quarter turn.
type Rotate struct {
	Direction images.Direction
}

// Name implements Transform.
func (t Rotate) Name() string {
	return "rotate-" + t.Direction.String()
}

// Apply implements Transform.
func (t Rotate) Apply(src images.Buffer) (images.Buffer, error) {
	return images.Rotate(src, t.Direction)
}

// Blur applies a Gaussian blur.
type Blur struct {
	Sigma   float64
	Radius  int
	Options kernels.Options
}

// Name implements Transform.
func (t Blur) Name() string {
	return fmt.Sprintf("blur(sigma=%g, radius=%d)", t.Sigma, t.Radius)
}

// Apply implements Transform.
func (t Blur) Apply(src images.Buffer) (images.Buffer, error) {
	return kernels.GaussianBlur(src, t.Radius, t.Sigma, t.Options)
}

// Resize scales the image. Width and height are expressions over the current
// dimensions, e.g. "width/2" or "320".
type Resize struct {
	WidthExpr  string
	HeightExpr string
	Filter     images.ResampleFilter

	width, height *govaluate.EvaluableExpression
}

// NewResize compiles the two dimension expressions.
func NewResize(widthExpr, heightExpr string, filter images.ResampleFilter) (*Resize, error) {
	w, err := govaluate.NewEvaluableExpression(widthExpr)
	if err != nil {
		return nil, errors.Wrapf(images.ErrInvalidParameter, "resize width %q: %v", widthExpr, err)
	}
	h, err := govaluate.NewEvaluableExpression(heightExpr)
	if err != nil {
		return nil, errors.Wrapf(images.ErrInvalidParameter, "resize height %q: %v", heightExpr, err)
	}

	return &Resize{
		WidthExpr:  widthExpr,
		HeightExpr: heightExpr,
		Filter:     filter,
		width:      w,
		height:     h,
	}, nil
}

// Name implements Transform.
func (t *Resize) Name() string {
	return fmt.Sprintf("resize(%s, %s)", t.WidthExpr, t.HeightExpr)
}

// Dimensions evaluates the expressions against a source size.
func (t *Resize) Dimensions(srcWidth, srcHeight int) (int, int, error) {
	params := map[string]interface{}{
		"width":  float64(srcWidth),
		"height": float64(srcHeight),
	}

	w, err := evalDimension(t.width, params)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "resize width %q", t.WidthExpr)
	}
	h, err := evalDimension(t.height, params)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "resize height %q", t.HeightExpr)
	}

	return w, h, nil
}

// Apply implements Transform.
func (t *Resize) Apply(src images.Buffer) (images.Buffer, error) {
	w, h, err := t.Dimensions(src.Width, src.Height)
	if err != nil {
		return images.Buffer{}, err
	}
	return images.Resize(src, w, h, t.Filter)
}

func evalDimension(expr *govaluate.EvaluableExpression, params map[string]interface{}) (int, error) {
	v, err := expr.Evaluate(params)
	if err != nil {
		return 0, errors.Wrapf(images.ErrInvalidParameter, "%v", err)
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Wrapf(images.ErrInvalidParameter, "not a number: %v", v)
	}
	if f > math.MaxInt32 {
		return 0, errors.Wrapf(images.ErrInvalidParameter, "evaluates to %g", f)
	}
	n := int(math.Round(f))
	if n <= 0 {
		return 0, errors.Wrapf(images.ErrInvalidParameter, "evaluates to %d", n)
	}
	return n, nil
}

// ParseTransform parses one transform spec:
//
//	rotate-left, rotate-right, rotate(left), rotate(right)
//	blur, blur(1.5), blur(1.5, 5), blur(sigma=1.5, radius=5)
//	resize(width/2, height/2), resize(640, 480, bilinear), resize(720p)
//
// Blur stages get opt for border policy, pooling and parallelism.
func ParseTransform(spec string, opt kernels.Options) (Transform, error) {
	name, args, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}

	switch name {
	case "rotate-left", "rotate-right":
		dir, _ := images.ParseDirection(strings.TrimPrefix(name, "rotate-"))
		if len(args) != 0 {
			return nil, errors.Wrapf(images.ErrInvalidParameter, "%s takes no arguments", name)
		}
		return Rotate{Direction: dir}, nil

	case "rotate":
		if len(args) != 1 {
			return nil, errors.Wrapf(images.ErrInvalidParameter, "rotate takes one direction, got %q", spec)
		}
		dir, err := images.ParseDirection(args[0])
		if err != nil {
			return nil, err
		}
		return Rotate{Direction: dir}, nil

	case "blur":
		return parseBlur(args, opt)

	case "resize":
		return parseResize(spec, args)
	}

	return nil, errors.Wrapf(images.ErrInvalidParameter, "unknown transform %q", spec)
}

// ParseTransforms parses specs in order.
func ParseTransforms(specs []string, opt kernels.Options) ([]Transform, error) {
	transforms := make([]Transform, 0, len(specs))
	for _, spec := range specs {
		t, err := ParseTransform(spec, opt)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// parseResize accepts width, height[, filter] or a resolution alias[, filter].
func parseResize(spec string, args []string) (Transform, error) {
	if len(args) > 0 {
		if res, ok := images.LookupResolution(args[0]); ok && len(args) <= 2 {
			filter := images.LanczosFilter
			if len(args) == 2 {
				var err error
				if filter, err = images.ParseResampleFilter(args[1]); err != nil {
					return nil, err
				}
			}
			return NewResize(strconv.Itoa(res.Width), strconv.Itoa(res.Height), filter)
		}
	}

	if len(args) != 2 && len(args) != 3 {
		return nil, errors.Wrapf(images.ErrInvalidParameter, "resize takes width, height[, filter] or a resolution, got %q", spec)
	}
	filter := images.LanczosFilter
	if len(args) == 3 {
		var err error
		if filter, err = images.ParseResampleFilter(args[2]); err != nil {
			return nil, err
		}
	}
	return NewResize(args[0], args[1], filter)
}

func parseBlur(args []string, opt kernels.Options) (Transform, error) {
	blur := Blur{
		Sigma:   DefaultBlurSigma,
		Radius:  DefaultBlurRadius,
		Options: opt,
	}

	if len(args) > 2 {
		return nil, errors.Wrapf(images.ErrInvalidParameter, "blur takes sigma and radius, got %d arguments", len(args))
	}

	for i, arg := range args {
		key, value, keyed := strings.Cut(arg, "=")
		if keyed {
			key = strings.ToLower(strings.TrimSpace(key))
			value = strings.TrimSpace(value)
		} else if i == 0 {
			key = "sigma"
		} else {
			key = "radius"
		}

		switch key {
		case "sigma":
			sigma, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, errors.Wrapf(images.ErrInvalidParameter, "blur sigma %q", value)
			}
			blur.Sigma = sigma
		case "radius":
			radius, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(images.ErrInvalidParameter, "blur radius %q", value)
			}
			blur.Radius = radius
		default:
			return nil, errors.Wrapf(images.ErrInvalidParameter, "unknown blur parameter %q", key)
		}
	}

	// Fail at parse time rather than halfway through a run.
	if _, err := kernels.GenerateGaussianKernel(blur.Radius, blur.Sigma); err != nil {
		return nil, err
	}

	return blur, nil
}

// splitSpec splits "name(a, b)" into "name" and ["a", "b"].
func splitSpec(spec string) (string, []string, error) {
	spec = strings.TrimSpace(spec)
	open := strings.IndexByte(spec, '(')
	if open < 0 {
		if spec == "" {
			return "", nil, errors.Wrap(images.ErrInvalidParameter, "empty transform")
		}
		return strings.ToLower(spec), nil, nil
	}
	if !strings.HasSuffix(spec, ")") {
		return "", nil, errors.Wrapf(images.ErrInvalidParameter, "unbalanced parentheses in %q", spec)
	}

	name := strings.ToLower(strings.TrimSpace(spec[:open]))
	inner := strings.TrimSpace(spec[open+1 : len(spec)-1])
	if inner == "" {
		return name, nil, nil
	}

	args := strings.Split(inner, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
		if args[i] == "" {
			return "", nil, errors.Wrapf(images.ErrInvalidParameter, "empty argument in %q", spec)
		}
	}

	return name, args, nil
}
