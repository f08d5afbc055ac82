package search

import "brokenexp/internal/models"

// statusNeighbors is how far the similar pass loosens a status filter.
var statusNeighbors = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusPending, models.StatusInProgress},
	models.StatusInProgress: {models.StatusInProgress, models.StatusPending, models.StatusResolved},
	models.StatusResolved:   {models.StatusResolved, models.StatusClosed},
	models.StatusClosed:     {models.StatusClosed, models.StatusResolved},
}

var categoryNeighbors = map[models.Category][]models.Category{
	models.CategoryInfrastructure:  {models.CategoryInfrastructure, models.CategoryMaintenance, models.CategoryRoadMaintenance},
	models.CategoryMaintenance:     {models.CategoryMaintenance, models.CategoryInfrastructure, models.CategoryRoadMaintenance},
	models.CategoryRoadMaintenance: {models.CategoryRoadMaintenance, models.CategoryInfrastructure, models.CategoryMaintenance},
	models.CategorySafety:          {models.CategorySafety, models.CategoryAccessibility},
	models.CategoryAccessibility:   {models.CategoryAccessibility, models.CategorySafety, models.CategoryInfrastructure},
	models.CategoryEnvironment:     {models.CategoryEnvironment, models.CategoryMaintenance},
}

func statusNear(filter, got models.Status) bool {
	if isAll(string(filter)) {
		return true
	}
	near, ok := statusNeighbors[filter]
	if !ok {
		return filter == got
	}
	for _, s := range near {
		if s == got {
			return true
		}
	}
	return false
}

func categoryNear(filter, got models.Category) bool {
	if isAll(string(filter)) {
		return true
	}
	near, ok := categoryNeighbors[filter]
	if !ok {
		return filter == got
	}
	for _, c := range near {
		if c == got {
			return true
		}
	}
	return false
}
