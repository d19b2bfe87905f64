package models

// All lists every model in migration order.
var All = []interface{}{
	&Project{},
	&Geometry{},
	&Mesh{},
	&Job{},
	&Result{},
}
