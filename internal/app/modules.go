package app

import (
	"io"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/modules/env_vars"
	"github.com/vk/flowgrid/modules/http_client"
	"github.com/vk/flowgrid/modules/listen"
	"github.com/vk/flowgrid/modules/notify"
	"github.com/vk/flowgrid/modules/print"
	"github.com/vk/flowgrid/modules/redis_chat"
	"github.com/vk/flowgrid/modules/socketio"
	"github.com/vk/flowgrid/modules/text"
)

// CoreModules is the definitive list of all modules that are compiled into
// the flowgrid binary. Printed values go to out.
func CoreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&http_client.Module{},
		&listen.Module{},
		&notify.Module{},
		&print.Module{Out: out},
		&redis_chat.Module{},
		&socketio.Module{},
		&text.Module{},
	}
}
