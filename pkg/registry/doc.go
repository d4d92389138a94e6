// Package registry keeps track of which features every managed resource
// exposes.
//
// A Model maps resource names to a ResourceFeatureList of accessors. All
// mutation (add, remove, clear) happens under the model's write lock;
// reads, value access and iteration share the read lock. Callbacks passed
// to ForEach run under the read lock and must not call back into a
// mutating method of the same model.
//
// Registry combines a model of attributes and a model of notifications
// and exposes them to connectors (AddFeature, RemoveFeature,
// RemoveAllFeatures, HandleFeatureEvent) and to gateways
// (GetAttributeValue, SetAttributeValue, ForEachAttribute,
// ForEachNotification, HostedResources). The two models are independent:
// RemoveAllFeatures clears attributes and then notifications in two
// separate lock scopes, so a concurrent reader may briefly see a resource
// with notifications but no attributes.
package registry
