// Package litedb registers a single embedded database into a samber/do
// injector.
//
// Configuration is collected from any number of registration calls and
// resolved lazily, the first time the *database.LiteDatabase singleton is
// invoked:
//
//	injector := do.New()
//	do.ProvideValue[config.Source](injector, config.NewMapSource(map[string]string{
//	    "ConnectionStrings:LiteDatabase": ":memory:",
//	}))
//	_ = litedb.RegisterDefaults(injector)
//	_ = litedb.RegisterConfigure(injector, func(o *litedb.Options) {
//	    o.AddPatch(database.UserVersionPatch(1))
//	})
//	db, err := do.Invoke[*database.LiteDatabase](injector)
//
// Steps run in two phases. The defaults step (configuration source and
// logger factory lookup) runs first, then every RegisterOptions,
// RegisterConnectionString and RegisterConfigure step in call order, then
// every RegisterConfigurer and RegisterPostConfigure step in call order,
// regardless of when those were registered.
package litedb
