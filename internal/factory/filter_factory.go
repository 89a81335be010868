package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/adapters/filter"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/core"
)

// FilterFactory creates mail filter front-ends based on configuration.
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassifierService
}

// NewFilterFactory creates a new filter factory.
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ClassifierService) *FilterFactory {
	return &FilterFactory{cfg: cfg, logger: logger, service: service}
}

// CreateMailFilter creates the front-end named by server.filter_type.
func (f *FilterFactory) CreateMailFilter() (core.MailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetBool("server.block_spam"),
			f.cfg.GetString("server.headers.spam"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.engine"),
			f.cfg.GetString("server.postfix_addr"),
			f.cfg.GetInt("server.postfix_port"),
			f.cfg.GetBool("server.postfix_enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
