package handler

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rohanmehra24/memory-lane/database"
	"github.com/rohanmehra24/memory-lane/middleware"
	"github.com/rohanmehra24/memory-lane/models"
	"github.com/rohanmehra24/memory-lane/storage"
	"github.com/rohanmehra24/memory-lane/vision"
	"gorm.io/gorm"
)

var (
	uploader storage.Uploader
	engines  []vision.Engine

	uploadDir     = "./uploads"
	engineTimeout = 2 * time.Minute

	locks = newRecordLocks()
)

// SetupMemoryHandlers wires the object store client and the vision engines.
// Must be called before the routes are served.
func SetupMemoryHandlers(u storage.Uploader, e []vision.Engine) {
	uploader = u
	engines = e
}

// UploadMemory ingests one photo: stores it (plus thumbnails) in the object
// store, creates the memory record, fires the vision engines without waiting
// for them, links the record to its owner and responds with the new id.
// Tags arrive later, asynchronously, invisible to this request.
func UploadMemory(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized Request",
			"data":    nil,
		})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "No file provided",
			"data":    nil,
		})
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("Error creating upload dir: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving the file",
			"data":    nil,
		})
	}

	// Unique temp name: concurrent uploads may carry the same client-side
	// filename and must not share a path.
	localPath := filepath.Join(uploadDir, uuid.NewString()+"_"+filepath.Base(file.Filename))
	if err := c.SaveFile(file, localPath); err != nil {
		log.Printf("Error saving upload locally: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving the file",
			"data":    nil,
		})
	}

	blobFile, err := os.Open(localPath)
	if err != nil {
		removeLocal(localPath)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error opening the file",
			"data":    nil,
		})
	}

	variants, err := uploader.Upload(c.Context(), blobFile, file.Filename)
	blobFile.Close()
	if err != nil {
		log.Printf("Storage upload error: %v", err)
		removeLocal(localPath)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error uploading the file",
			"data":    nil,
		})
	}

	// The storage client returns all variants, including generated
	// thumbnails. Only the original drives record creation; every key is
	// retained for compensating deletion.
	original := originalVariant(variants)
	if original == nil {
		log.Printf("Storage returned no original variant for %s", file.Filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error uploading the file",
			"data":    nil,
		})
	}

	keyArray := make([]models.StorageKey, 0, len(variants))
	for _, v := range variants {
		keyArray = append(keyArray, models.StorageKey{Key: v.Key})
	}

	memory := models.Memory{
		UserID:   userID,
		Title:    file.Filename,
		FilePath: original.URL,
		KeyArray: keyArray,
	}

	db := database.GetDB()
	if err := db.Create(&memory).Error; err != nil {
		log.Printf("Error creating memory: %v", err)
		removeLocal(localPath)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving to database",
			"data":    nil,
		})
	}

	// Best-effort removal of the local temp file.
	go removeLocal(localPath)

	for _, engine := range engines {
		go runEngine(engine, memory.ID, original.URL)
	}

	// Link the record to its owner. On failure the fresh record is deleted
	// so no orphan survives the request.
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		db.Delete(&memory)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "No user found",
				"data":    nil,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Database error",
			"data":    nil,
		})
	}

	user.MemoryIDs = append(user.MemoryIDs, memory.ID)
	if err := db.Save(&user).Error; err != nil {
		log.Printf("Error saving user %d: %v", userID, err)
		db.Delete(&memory)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving user",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Successfully uploaded the file",
		"data":    memory.ID,
	})
}

func removeLocal(localPath string) {
	if err := os.Remove(localPath); err != nil {
		log.Printf("Error deleting file %s: %v", localPath, err)
	}
}

func originalVariant(variants []storage.Variant) *storage.Variant {
	for i := range variants {
		if variants[i].Original {
			return &variants[i]
		}
	}
	return nil
}

// runEngine drives one vision engine to completion and appends its result.
// Failures are logged and leave the record short one analysis entry; there
// are no retries.
func runEngine(engine vision.Engine, memoryID uint, imageURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), engineTimeout)
	defer cancel()

	result, err := engine.Analyze(ctx, imageURL)
	if err != nil {
		log.Printf("%s analysis failed for memory %d: %v", engine.Name(), memoryID, err)
		return
	}

	appendAnalysis(memoryID, result)
}

// appendAnalysis persists one engine result under the record's lock. A
// result arriving after the record was deleted is dropped.
func appendAnalysis(memoryID uint, result models.Analysis) {
	unlock := locks.Lock(memoryID)
	defer unlock()

	db := database.GetDB()
	var memory models.Memory
	if err := db.First(&memory, memoryID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Error loading memory %d for %s analysis: %v", memoryID, result.API, err)
		}
		return
	}

	memory.UpsertAnalysis(result)
	if err := db.Save(&memory).Error; err != nil {
		log.Printf("Error saving %s analysis for memory %d: %v", result.API, memoryID, err)
	}
}

// FetchMemories returns all of the user's memories in upload order.
func FetchMemories(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized Request",
			"data":    nil,
		})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No user found",
			"data":    nil,
		})
	}

	memories, err := loadMemoriesInOrder(db, user.MemoryIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Database error",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Memories found",
		"data":    memories,
	})
}

// loadMemoriesInOrder fetches the given records and returns them in the
// order of the id list, skipping ids that no longer resolve.
func loadMemoriesInOrder(db *gorm.DB, ids []uint) ([]models.Memory, error) {
	if len(ids) == 0 {
		return []models.Memory{}, nil
	}

	var memories []models.Memory
	if err := db.Where("id IN ?", ids).Find(&memories).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Memory, len(memories))
	for _, m := range memories {
		byID[m.ID] = m
	}

	ordered := make([]models.Memory, 0, len(memories))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

// FetchMemory returns a single memory by id.
func FetchMemory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	db := database.GetDB()
	var memory models.Memory
	if err := db.First(&memory, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Memory found",
		"data":    memory,
	})
}

// UpdateMemory applies a partial metadata update (latitude, longitude,
// location description) as a direct field-level update, no read-modify-write.
func UpdateMemory(c *fiber.Ctx) error {
	type UpdateInput struct {
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		LocationDescrip *string  `json:"locationDescrip"`
	}

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	updates := map[string]interface{}{}
	if input.Latitude != nil {
		updates["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		updates["longitude"] = *input.Longitude
	}
	if input.LocationDescrip != nil {
		updates["location_desc"] = *input.LocationDescrip
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "No fields to update",
			"data":    nil,
		})
	}

	db := database.GetDB()
	result := db.Model(&models.Memory{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		log.Printf("Error updating memory %d: %v", id, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error updating memory",
			"data":    nil,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Memory updated",
		"data":    nil,
	})
}

// StoreTags is dual-mode: with a tags list it replaces the record's finalized
// tags wholesale; without one it treats the payload as a caption correction
// applied to the caption engine's analysis entry (located by name).
func StoreTags(c *fiber.Ctx) error {
	type TagsInput struct {
		Tags    []string `json:"tags"`
		Caption *string  `json:"caption"`
	}

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	if len(c.Body()) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing request body",
			"data":    nil,
		})
	}

	var input TagsInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	if input.Tags == nil && input.Caption == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Either tags or caption is required",
			"data":    nil,
		})
	}

	unlock := locks.Lock(id)
	defer unlock()

	db := database.GetDB()
	var memory models.Memory
	if err := db.First(&memory, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	if input.Tags == nil {
		if !memory.SetCaption(*input.Caption) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "No caption analysis to correct",
				"data":    nil,
			})
		}
	} else {
		// Full replacement, no merge with existing tags.
		memory.Tags = input.Tags
	}

	if err := db.Save(&memory).Error; err != nil {
		log.Printf("Error saving tags for memory %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error saving tags",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Tags saved",
		"data":    nil,
	})
}

// SearchMemories returns the user's memories where at least one finalized tag
// contains at least one normalized search term as a substring.
func SearchMemories(c *fiber.Ctx) error {
	type SearchInput struct {
		SearchParameter []string `json:"searchParameter"`
	}

	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized Request",
			"data":    nil,
		})
	}

	var input SearchInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"data":    nil,
		})
	}

	terms := normalizeTerms(input.SearchParameter)

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No user found",
			"data":    nil,
		})
	}

	memories, err := loadMemoriesInOrder(db, user.MemoryIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Database error",
			"data":    nil,
		})
	}

	matches := make([]models.Memory, 0)
	for _, memory := range memories {
		if tagsMatch(memory.Tags, terms) {
			matches = append(matches, memory)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Search complete",
		"data":    matches,
	})
}

// normalizeTerms lowercases and trims each search term and replaces
// underscores with spaces, dropping empties.
func normalizeTerms(terms []string) []string {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(strings.ToLower(term))
		term = strings.ReplaceAll(term, "_", " ")
		if term != "" {
			normalized = append(normalized, term)
		}
	}
	return normalized
}

// tagsMatch reports whether any tag contains any term as a substring. Tags
// are lowercased for the comparison.
func tagsMatch(tags, terms []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, term := range terms {
			if strings.Contains(tag, term) {
				return true
			}
		}
	}
	return false
}

// TagCounts returns the frequency of every finalized tag across the user's
// memories, for the client's tag-count view.
func TagCounts(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized Request",
			"data":    nil,
		})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No user found",
			"data":    nil,
		})
	}

	memories, err := loadMemoriesInOrder(db, user.MemoryIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Database error",
			"data":    nil,
		})
	}

	counts := map[string]int{}
	for _, memory := range memories {
		for _, tag := range memory.Tags {
			counts[tag]++
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Tag counts computed",
		"data":    counts,
	})
}

// DeleteMemory removes the record, cleans the owner's back-reference, then
// batch-deletes every stored variant. The record deletion commits first; a
// storage failure is reported but not rolled back.
func DeleteMemory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	unlock := locks.Lock(id)

	db := database.GetDB()
	var memory models.Memory
	if err := db.First(&memory, id).Error; err != nil {
		unlock()
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "No memory found with ID",
			"data":    nil,
		})
	}

	if err := db.Delete(&memory).Error; err != nil {
		unlock()
		log.Printf("Error deleting memory %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error deleting memory",
			"data":    nil,
		})
	}

	// Weak back-reference cleanup on the owner's list.
	var user models.User
	if err := db.First(&user, memory.UserID).Error; err == nil {
		if user.RemoveMemoryID(memory.ID) {
			if err := db.Save(&user).Error; err != nil {
				log.Printf("Error cleaning memory %d from user %d: %v", memory.ID, user.ID, err)
			}
		}
	}

	unlock()

	if err := uploader.DeleteKeys(c.Context(), memory.StorageKeys()); err != nil {
		log.Printf("Error deleting stored objects for memory %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Error deleting stored files",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Memory deleted",
		"data":    memory,
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}
