package sbhttp

import (
	"bufio"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"

	log "github.com/sirupsen/logrus"
	lhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/http"
)

func ReturnHttpError(w http.ResponseWriter, err, defaultErr *lhttp.HttpError) {
	if err.IsTransport() {
		if defaultErr != nil {
			ReturnError(w, defaultErr.Code, defaultErr.Message, err.Err)
		} else {
			ReturnError(w, http.StatusInternalServerError, "Internal server error", err.Err)
		}
	} else {
		ReturnError(w, err.Code, err.Message, err)
	}
}

func ReturnError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Debugf("returning %d: %s", code, err)
	}
	http.Error(w, message, code)
}

func WriteJson(w http.ResponseWriter, code int, result interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		w.Write([]byte("error serializing response"))
		return err
	}
	return nil
}

// ReturnStream copies content to the response as a download named after filename. The content type is
// guessed from the extension, then from the first bytes of content.
func ReturnStream(writer http.ResponseWriter, filename string, content io.Reader) error {
	buffered := bufio.NewReaderSize(content, 512)
	head, err := buffered.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	contentType := lhttp.InferContentType(filename, head)

	writer.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(filename)}))
	writer.Header().Set("Content-Type", contentType)
	writer.WriteHeader(http.StatusOK)

	_, err = io.Copy(writer, buffered)
	return err
}
