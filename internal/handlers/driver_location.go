package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/internal/auth"
	"github.com/chachabrian/carpool-backend/internal/dto"
	"github.com/chachabrian/carpool-backend/internal/tracker"
)

// UpdateCarpoolLocation is the REST twin of the sendLocation mutation, used
// by background location tasks that cannot hold a GraphQL client.
func UpdateCarpoolLocation(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Lat      *float64 `json:"lat" binding:"required"`
			Lon      *float64 `json:"lon" binding:"required"`
			NextStop struct {
				Address   string `json:"address"`
				RequestID string `json:"requestId"`
			} `json:"nextStop"`
			TimeToNextStop     string `json:"timeToNextStop"`
			TotalTime          string `json:"totalTime"`
			TimeUntilNextStop  string `json:"timeUntilNextStop"`
			IsLeaving          bool   `json:"isLeaving"`
			IsFinalDestination bool   `json:"isFinalDestination"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		loc, err := tr.Report(c.Request.Context(), auth.FromContext(c.Request.Context()), dto.LocationReport{
			CarpoolID:          c.Param("id"),
			Lat:                *input.Lat,
			Lon:                *input.Lon,
			NextStop:           dto.NextStopInput{Address: input.NextStop.Address, RequestID: input.NextStop.RequestID},
			TimeToNextStop:     input.TimeToNextStop,
			TotalTime:          input.TotalTime,
			TimeUntilNextStop:  input.TimeUntilNextStop,
			IsLeaving:          input.IsLeaving,
			IsFinalDestination: input.IsFinalDestination,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, loc)
	}
}
