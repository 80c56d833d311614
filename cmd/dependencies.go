package cmd

import "github.com/AKirsch1/Deploy-to-Grading/internal/metric"

type AppDependencies struct {
	MetricRegistry *metric.Registry

	// Gradle is the registered gradle handler. The action command sets
	// its JavaHome after provisioning a JDK.
	Gradle *metric.GradleHandler
}

var appDependencies *AppDependencies

// SetDependencies allows for injecting application dependencies
func SetDependencies(deps *AppDependencies) {
	if deps == nil || deps.MetricRegistry == nil {
		panic("critical error: attempted to set nil dependencies or registry")
	}
	appDependencies = deps
}

// GetDependencies provides access to the dependencies.
// Panics if dependencies haven't been set (indicates setup error).
func GetDependencies() *AppDependencies {
	if appDependencies == nil {
		panic("critical error: application dependencies not set before access")
	}
	return appDependencies
}
