package catalog

// defaultIntermediates is the curated allow-list of items eligible for
// productivity modules. Membership is explicit: a recipe may use
// productivity modules only if at least one of its outputs appears
// here. The list is data, not logic - raw ores and plates appear
// alongside science packs because the source game allows them.
var defaultIntermediates = []string{
	"iron-plate",
	"copper-plate",
	"steel-plate",
	"iron-stick",
	"iron-gear-wheel",
	"copper-cable",
	"electronic-circuit",
	"advanced-circuit",
	"processing-unit",
	"engine-unit",
	"electric-engine-unit",
	"flying-robot-frame",
	"battery",
	"sulfur",
	"plastic-bar",
	"explosives",
	"lubricant",
	"solid-fuel",
	"rocket-fuel",
	"low-density-structure",
	"uranium-fuel-cell",
	"automation-science-pack",
	"logistic-science-pack",
	"military-science-pack",
	"chemical-science-pack",
	"production-science-pack",
	"utility-science-pack",
	"space-science-pack",
	"cryogenic-science-pack",
}

// defaultFluids is the allow-list of fluid items. Quality modules are
// illegal on any recipe that outputs one of these.
var defaultFluids = []string{
	"water",
	"steam",
	"crude-oil",
	"heavy-oil",
	"light-oil",
	"petroleum-gas",
	"lubricant",
	"sulfuric-acid",
	"fluoroketone-cold",
	"fluoroketone-hot",
	"ammonia",
	"fusion-plasma",
}
