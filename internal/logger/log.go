package logger

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sizeLimit = 240 * 1024 // CloudWatch log size limit
	// request log type
	requestType = "request"
	truncated   = "TRUNCATED..."
)

// logRecord for Request Log
type logRecord struct {
	RequestID       string // AwsRequestID, use as TraceID
	Timestamp       int64
	Duration        int64
	HTTPStatusCode  int
	ErrorStackTrace string
	HTTPMethod      string
	RequestPath     string
	RequestQuery    string
	RequestBody     string
	ResponseBody    string
	Type            string
}

func (record *logRecord) size() int {
	return len(record.RequestBody) + len(record.ResponseBody) + len(record.ErrorStackTrace) + len(record.RequestPath) + len(record.RequestQuery)
}

func (record *logRecord) fields() []zap.Field {
	return []zap.Field{
		zap.String("type", record.Type),
		zap.String("request_id", record.RequestID),
		zap.Int64("timestamp", record.Timestamp),
		zap.Int64("duration_ms", record.Duration),
		zap.Int("status", record.HTTPStatusCode),
		zap.String("method", record.HTTPMethod),
		zap.String("path", record.RequestPath),
		zap.String("query", record.RequestQuery),
		zap.String("request_body", record.RequestBody),
		zap.String("response_body", record.ResponseBody),
		zap.String("stack", record.ErrorStackTrace),
	}
}

// GinLogMiddleware writes one request log record per request to log
func GinLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var record *logRecord
		// overwrite the gin.Context.Writer to log response body
		respLogWriter := &respLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = respLogWriter

		defer func() {
			// finally print request log even panic
			logTruncate(record)
			log.Info("request", record.fields()...)
		}()

		defer func() {
			if r := recover(); r != nil {
				record.HTTPStatusCode = http.StatusInternalServerError
				record.ErrorStackTrace = string(debug.Stack())
				// throw the panic to the later middlewares
				panic(r)
			}
		}()

		record = initLogRecord(c)

		if lc, ok := lambdacontext.FromContext(c.Request.Context()); ok {
			record.RequestID = lc.AwsRequestID
		}

		c.Next()

		// if response normally, fill in remain fields
		record.HTTPStatusCode = c.Writer.Status()
		record.Duration = time.Now().UnixNano()/1e6 - record.Timestamp
		record.ResponseBody = respLogWriter.body.String()
	}
}

// logTruncate drops the largest parts of the record until it fits in sizeLimit
func logTruncate(record *logRecord) {
	if record.size() < sizeLimit {
		return
	}
	record.ResponseBody = truncated
	if record.size() < sizeLimit {
		return
	}
	record.RequestBody = truncated
	if record.size() < sizeLimit {
		return
	}
	record.ErrorStackTrace = truncated
}

type respLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w respLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w respLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func initLogRecord(ctx *gin.Context) *logRecord {
	requestBodyBytes, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		requestBodyBytes = nil
	}
	// reattach request body for later use
	ctx.Request.Body = io.NopCloser(bytes.NewBuffer(requestBodyBytes))

	return &logRecord{
		Timestamp:    time.Now().UnixNano() / 1e6,
		HTTPMethod:   ctx.Request.Method,
		RequestPath:  ctx.Request.URL.Path,
		RequestQuery: ctx.Request.URL.RawQuery,
		RequestBody:  string(requestBodyBytes),
		Type:         requestType,
	}
}
