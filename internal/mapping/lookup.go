package mapping

// Pure lookup helpers: these take an already-fetched list
// and never touch the store, in the style of free functions operating on
// in-memory slices.

// FindByInternalID returns the mapping for (projectID, internalID) in
// list, or nil if none exists. Per invariant 1, at most one
// such mapping can exist.
func FindByInternalID(projectID, internalID int, list []ArtifactMapping) *ArtifactMapping {
	for i := range list {
		if list[i].ProjectID == projectID && list[i].InternalID == internalID {
			return &list[i]
		}
	}
	return nil
}

// FindByInternalIDScoped is the project-less overload used when list is
// already scoped to a single project.
func FindByInternalIDScoped(internalID int, list []ArtifactMapping) *ArtifactMapping {
	for i := range list {
		if list[i].InternalID == internalID {
			return &list[i]
		}
	}
	return nil
}

// FindByExternalKey returns the mapping for (projectID, externalKey) in
// list. When onlyPrimary is true, only mappings marked Primary are
// considered, resolving the many-external-keys-alias-one-internal-value
// ambiguity deterministically.
func FindByExternalKey(projectID int, externalKey string, list []ArtifactMapping, onlyPrimary bool) *ArtifactMapping {
	for i := range list {
		if list[i].ProjectID != projectID || list[i].ExternalKey != externalKey {
			continue
		}
		if onlyPrimary && !list[i].Primary {
			continue
		}
		return &list[i]
	}
	return nil
}

// FindByExternalKeyScoped is the project-less overload of FindByExternalKey.
func FindByExternalKeyScoped(externalKey string, list []ArtifactMapping, onlyPrimary bool) *ArtifactMapping {
	for i := range list {
		if list[i].ExternalKey != externalKey {
			continue
		}
		if onlyPrimary && !list[i].Primary {
			continue
		}
		return &list[i]
	}
	return nil
}

// FindFieldValue returns the translated external value for an internal
// value, or ("", false) if unmapped.
func FindFieldValue(internalValue string, list []FieldValueMapping) (string, bool) {
	for _, m := range list {
		if m.InternalValue == internalValue {
			return m.ExternalValue, true
		}
	}
	return "", false
}

// FindInternalValue returns the translated internal value for an external
// value, or ("", false) if unmapped.
func FindInternalValue(externalValue string, list []FieldValueMapping) (string, bool) {
	for _, m := range list {
		if m.ExternalValue == externalValue {
			return m.InternalValue, true
		}
	}
	return "", false
}

// FindCustomPropertyMapping returns the destination field name configured
// for a given custom-property slot, or ("", false) if absent.
func FindCustomPropertyMapping(customPropertyID int, list []CustomPropertyMapping) (string, bool) {
	for _, m := range list {
		if m.CustomPropertyID == customPropertyID {
			return m.ExternalFieldName, true
		}
	}
	return "", false
}

// FindCustomPropertyValue translates one custom-property list/multi-list
// value from internal to external.
func FindCustomPropertyValue(internalValue string, list []CustomPropertyValueMapping) (string, bool) {
	for _, m := range list {
		if m.InternalValue == internalValue {
			return m.ExternalValue, true
		}
	}
	return "", false
}

// FindCustomPropertyInternalValue translates one custom-property value
// from external back to internal.
func FindCustomPropertyInternalValue(externalValue string, list []CustomPropertyValueMapping) (string, bool) {
	for _, m := range list {
		if m.ExternalValue == externalValue {
			return m.InternalValue, true
		}
	}
	return "", false
}

// FindUserByInternalID translates an internal user id to its mapped
// external display name.
func FindUserByInternalID(internalUserID int, list []UserMapping) (string, bool) {
	for _, m := range list {
		if m.InternalUserID == internalUserID {
			return m.ExternalDisplayName, true
		}
	}
	return "", false
}

// FindUserByDisplayName translates an external display name back to an
// internal user id.
func FindUserByDisplayName(displayName string, list []UserMapping) (int, bool) {
	for _, m := range list {
		if m.ExternalDisplayName == displayName {
			return m.InternalUserID, true
		}
	}
	return 0, false
}
