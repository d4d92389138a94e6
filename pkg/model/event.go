package model

// FeatureEvent describes a change to a resource's feature set.
// The set of implementations is closed: FeatureAdded, FeatureModified and
// FeatureRemoving.
type FeatureEvent interface {
	// ResourceName returns the resource the feature belongs to.
	ResourceName() string

	// Feature returns the metadata of the affected feature.
	Feature() Metadata

	featureEvent()
}

// FeatureAdded reports a new feature together with the support object
// accessors connect to.
type FeatureAdded struct {
	Resource string
	Metadata Metadata
	Support  any
}

// FeatureModified reports that the support object behind an existing
// feature was replaced.
type FeatureModified struct {
	Resource string
	Metadata Metadata
	Support  any
}

// FeatureRemoving reports that a feature is about to disappear.
type FeatureRemoving struct {
	Resource string
	Metadata Metadata
}

func (e FeatureAdded) ResourceName() string    { return e.Resource }
func (e FeatureAdded) Feature() Metadata       { return e.Metadata }
func (FeatureAdded) featureEvent()             {}
func (e FeatureModified) ResourceName() string { return e.Resource }
func (e FeatureModified) Feature() Metadata    { return e.Metadata }
func (FeatureModified) featureEvent()          {}
func (e FeatureRemoving) ResourceName() string { return e.Resource }
func (e FeatureRemoving) Feature() Metadata    { return e.Metadata }
func (FeatureRemoving) featureEvent()          {}
