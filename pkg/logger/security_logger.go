package logger

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"searchabull-keyword-engine/pkg/utils"
)

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]\s*[^\s&,]+`)
)

// SecurityLogger logs provider settings without leaking credentials.
type SecurityLogger struct {
	*Logger
}

// NewSecurityLogger creates a new security-aware logger
func NewSecurityLogger(base *Logger) *SecurityLogger {
	return &SecurityLogger{Logger: base}
}

// MaskSecret replaces a credential with a short fingerprint so two runs can
// be compared without exposing the value.
func (sl *SecurityLogger) MaskSecret(secret string) string {
	if secret == "" {
		return "unset"
	}
	return "secret#" + utils.FingerprintShort(secret)
}

// MaskAPIEndpoint keeps the host and hides the path and query.
func (sl *SecurityLogger) MaskAPIEndpoint(apiURL string) string {
	if apiURL == "" {
		return ""
	}

	parsed, err := url.Parse(apiURL)
	if err != nil || parsed.Host == "" {
		return "api-endpoint#" + utils.FingerprintShort(apiURL)
	}
	return fmt.Sprintf("%s/api#%s", parsed.Host, utils.FingerprintShort(apiURL))
}

// MaskKeywords reports only the size of a keyword list and a small sample.
func (sl *SecurityLogger) MaskKeywords(keywords []string) string {
	switch {
	case len(keywords) == 0:
		return "no_keywords"
	case len(keywords) <= 3:
		return fmt.Sprintf("keywords_count=%d", len(keywords))
	default:
		return fmt.Sprintf("keywords_count=%d,sample=[%s,%s,...]", len(keywords), keywords[0], keywords[1])
	}
}

// MaskSensitiveData masks values whose key suggests a credential or endpoint.
func (sl *SecurityLogger) MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))

	for key, value := range data {
		lowerKey := strings.ToLower(key)
		str, isString := value.(string)

		switch {
		case isSecretKey(lowerKey) && isString:
			masked[key] = sl.MaskSecret(str)
		case strings.Contains(lowerKey, "url") && isString:
			masked[key] = sl.MaskAPIEndpoint(str)
		case strings.Contains(lowerKey, "keyword"):
			if keywords, ok := value.([]string); ok {
				masked[key] = sl.MaskKeywords(keywords)
			} else {
				masked[key] = value
			}
		default:
			masked[key] = value
		}
	}

	return masked
}

func isSecretKey(key string) bool {
	for _, marker := range []string{"password", "secret", "token", "api_key", "auth_key", "login"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// MaskLogMessage strips URLs and inline credentials from free text.
func (sl *SecurityLogger) MaskLogMessage(message string) string {
	masked := urlPattern.ReplaceAllStringFunc(message, sl.MaskAPIEndpoint)
	return secretPattern.ReplaceAllString(masked, "${1}=***")
}

// SafeInfo logs info with automatic sensitive data masking
func (sl *SecurityLogger) SafeInfo(msg string, fields map[string]interface{}) {
	if fields != nil {
		sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Info(sl.MaskLogMessage(msg))
		return
	}
	sl.Logger.Info(sl.MaskLogMessage(msg))
}

// SafeWarn logs warning with automatic sensitive data masking
func (sl *SecurityLogger) SafeWarn(msg string, fields map[string]interface{}) {
	if fields != nil {
		sl.Logger.WithFields(sl.MaskSensitiveData(fields)).Warn(sl.MaskLogMessage(msg))
		return
	}
	sl.Logger.Warn(sl.MaskLogMessage(msg))
}

// SafeError logs error with automatic sensitive data masking
func (sl *SecurityLogger) SafeError(msg string, err error, fields map[string]interface{}) {
	maskedFields := map[string]interface{}{
		"error": sl.MaskLogMessage(err.Error()),
	}
	for k, v := range sl.MaskSensitiveData(fields) {
		maskedFields[k] = v
	}
	sl.Logger.WithFields(maskedFields).Error(sl.MaskLogMessage(msg))
}

var securityLoggerInstance *SecurityLogger

// GetSecurityLogger returns a security logger over the global logger.
func GetSecurityLogger() *SecurityLogger {
	if securityLoggerInstance == nil {
		securityLoggerInstance = NewSecurityLogger(GetLogger())
	}
	return securityLoggerInstance
}
