package auth

import (
	"encoding/json"
	"io"
	"slices"
	"sort"
)

// ResourceType is the only resource type accepted in a request body.
const ResourceType = "claim_event"

var (
	// allowedDataMembers are the keys permitted under "data".
	allowedDataMembers = map[string]bool{"type": true, "id": true, "attributes": true}

	// requiredAttributes is the sorted attribute key set of a claim event.
	requiredAttributes = []string{"pk160", "request_type", "request_uuid"}

	// requiredAttributesWithAcp additionally carries acp_type.
	requiredAttributesWithAcp = []string{"acp_type", "pk160", "request_type", "request_uuid"}
)

// ValidateBody checks that body is a claim_event resource document of the
// form {"data":{"type":"claim_event","id":...,"attributes":{...}}}. Attribute
// values are not interpreted. The body is rewound before returning.
func ValidateBody(body io.ReadSeeker) error {
	data, err := readBody(body)
	if err != nil {
		return ErrRequestBodyInvalid
	}
	return validateDocument(data)
}

func validateDocument(data []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return ErrRequestBodyInvalid
	}
	if len(root) != 1 {
		return ErrRequestBodyInvalid
	}
	rawData, ok := root["data"]
	if !ok {
		return ErrRequestBodyInvalid
	}

	var resource map[string]json.RawMessage
	if err := json.Unmarshal(rawData, &resource); err != nil || resource == nil {
		return ErrRequestBodyInvalid
	}
	for key := range resource {
		if !allowedDataMembers[key] {
			return ErrRequestBodyInvalid
		}
	}

	var resourceType string
	if err := json.Unmarshal(resource["type"], &resourceType); err != nil || resourceType != ResourceType {
		return ErrRequestBodyInvalid
	}

	var attributes map[string]json.RawMessage
	if err := json.Unmarshal(resource["attributes"], &attributes); err != nil || attributes == nil {
		return ErrRequestBodyInvalid
	}

	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if !slices.Equal(keys, requiredAttributes) && !slices.Equal(keys, requiredAttributesWithAcp) {
		return ErrRequestBodyInvalid
	}

	return nil
}
