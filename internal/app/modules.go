package app

import (
	"github.com/vk/nodeflow/internal/registry"
	"github.com/vk/nodeflow/modules/arraystats"
	"github.com/vk/nodeflow/modules/imagefilter"
	"github.com/vk/nodeflow/modules/zarrio"
)

// coreModules lists the node modules compiled into the binary. Additional
// node types can be declared in manifest files, see Config.ManifestsPath.
func coreModules() []registry.Module {
	return []registry.Module{
		&zarrio.Module{},
		&imagefilter.Module{},
		&arraystats.Module{},
	}
}
