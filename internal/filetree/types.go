package filetree

import (
	"path"
	"strings"
)

const (
	TypeFolder = "folder"
	TypeModel  = "model"
	TypeLog    = "log"
	TypeConfig = "config"
	TypeImage  = "image"
	TypeData   = "data"
	TypeText   = "text"
	TypeOther  = "other"
)

var extensionTypes = map[string]string{
	".pkl":         TypeModel,
	".pt":          TypeModel,
	".pth":         TypeModel,
	".h5":          TypeModel,
	".onnx":        TypeModel,
	".pb":          TypeModel,
	".joblib":      TypeModel,
	".safetensors": TypeModel,
	".ckpt":        TypeModel,
	".log":         TypeLog,
	".yaml":        TypeConfig,
	".yml":         TypeConfig,
	".json":        TypeConfig,
	".toml":        TypeConfig,
	".cfg":         TypeConfig,
	".ini":         TypeConfig,
	".conf":        TypeConfig,
	".png":         TypeImage,
	".jpg":         TypeImage,
	".jpeg":        TypeImage,
	".gif":         TypeImage,
	".svg":         TypeImage,
	".bmp":         TypeImage,
	".csv":         TypeData,
	".parquet":     TypeData,
	".npy":         TypeData,
	".npz":         TypeData,
	".txt":         TypeText,
	".md":          TypeText,
}

var binaryExtensions = map[string]struct{}{
	".pkl": {}, ".pt": {}, ".pth": {}, ".h5": {}, ".onnx": {}, ".pb": {}, ".joblib": {}, ".safetensors": {},
	".ckpt": {}, ".bin": {}, ".npy": {}, ".npz": {}, ".parquet": {}, ".png": {}, ".jpg": {}, ".jpeg": {},
	".gif": {}, ".bmp": {}, ".zip": {}, ".gz": {}, ".tar": {},
}

func extension(name string) string {
	return strings.ToLower(path.Ext(name))
}

// FileType maps a file name to its display type by extension.
func FileType(name string) string {
	if t, ok := extensionTypes[extension(name)]; ok {
		return t
	}
	return TypeOther
}

// IsBinary reports whether the file should be handled as raw bytes.
func IsBinary(name string) bool {
	_, ok := binaryExtensions[extension(name)]
	return ok
}
