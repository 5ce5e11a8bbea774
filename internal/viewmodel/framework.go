package viewmodel

import "strings"

const (
	FrameworkTensorflow = "tensorflow"
	FrameworkPytorch    = "pytorch"
	FrameworkSklearn    = "sklearn"
	FrameworkOnnx       = "onnx"
	FrameworkOther      = "other"
)

var frameworkKeywords = []struct {
	framework string
	keywords  []string
}{
	{FrameworkTensorflow, []string{"tensorflow", "keras"}},
	{FrameworkPytorch, []string{"pytorch", "torch"}},
	{FrameworkSklearn, []string{"sklearn", "scikit"}},
	{FrameworkOnnx, []string{"onnx"}},
}

// DetectFramework infers the framework from an artifact source path. Frameworks are checked in a fixed order
// and the first one with a matching keyword wins.
func DetectFramework(source string) string {
	s := strings.ToLower(source)
	for _, candidate := range frameworkKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(s, keyword) {
				return candidate.framework
			}
		}
	}
	return FrameworkOther
}
